package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/ruteri/eas-attestation-toolkit/chain"
	"github.com/ruteri/eas-attestation-toolkit/cmd/flags"
	"github.com/ruteri/eas-attestation-toolkit/config"
	"github.com/ruteri/eas-attestation-toolkit/eas"
	"github.com/ruteri/eas-attestation-toolkit/interfaces"
	"github.com/ruteri/eas-attestation-toolkit/registry"
	"github.com/ruteri/eas-attestation-toolkit/storage"
	"github.com/urfave/cli/v2"
)

const (
	// Schema registered for article publications.
	defaultSchema = "bytes32[] citationUID, bytes32 authorName, string articleTitle, bytes32 articleHash, string urlOfContent"

	defaultRecipient = "0xdd74500Da50db8B5A120310A00443C55b8Df3F10"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "eas",
		Usage: "Register schemas, create and verify attestations on the Ethereum Attestation Service",
		Flags: append(append([]cli.Flag{flags.LogServiceFlagFn("eas")}, flags.LoggingFlags...), flags.ConfigFlags...),
		Commands: []*cli.Command{
			registerSchemaCommand,
			fetchSchemaCommand,
			attestCommand,
			getAttestationCommand,
			signOffchainCommand,
			verifyOffchainCommand,
			encodeCommand,
			decodeCommand,
			schemaUIDCommand,
			hashContentCommand,
		},
	}
}

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// session is the per-invocation state shared by the subcommands.
type session struct {
	cfg *config.Config
	log *slog.Logger
}

func newSession(cCtx *cli.Context) (*session, error) {
	logger := flags.SetupLogger(cCtx)

	cfg, err := flags.LoadConfig(cCtx)
	if err != nil {
		logger.Error("Failed to load configuration", "err", err)
		return nil, err
	}
	return &session{cfg: cfg, log: logger}, nil
}

// context bounds a command by the configured confirmation timeout.
func (s *session) context(cCtx *cli.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cCtx.Context, s.cfg.ConfirmationTimeout)
}

// connect dials RPC_PROVIDER. withSigner additionally requires PRIVATE_KEY.
func (s *session) connect(ctx context.Context, withSigner bool) (*chain.Connection, error) {
	check := s.cfg.RequireRPC
	if withSigner {
		check = s.cfg.RequireSigner
	}
	if err := check(); err != nil {
		s.log.Error("Missing configuration", "err", err)
		return nil, err
	}

	privateKey := s.cfg.PrivateKey
	if !withSigner {
		privateKey = ""
	}

	s.log.Info("Connecting to Ethereum RPC")
	conn, err := chain.Connect(ctx, s.cfg.RPCProvider, privateKey, s.log)
	if err != nil {
		s.log.Error("Failed to connect", "err", err)
		return nil, err
	}
	return conn, nil
}

func (s *session) registry(conn *chain.Connection) (*registry.SchemaRegistryClient, error) {
	return registry.NewSchemaRegistryClient(conn, s.cfg.SchemaRegistry(), s.log)
}

func (s *session) eas(conn *chain.Connection) (*eas.Client, error) {
	return eas.NewClient(conn, s.cfg.EAS(), s.log)
}

// archive returns the configured ARCHIVE_URIS backend, or nil when none is set.
func (s *session) archive() (interfaces.StorageBackend, error) {
	if len(s.cfg.ArchiveURIs) == 0 {
		return nil, nil
	}

	locations := make([]interfaces.StorageBackendLocation, len(s.cfg.ArchiveURIs))
	for i, uri := range s.cfg.ArchiveURIs {
		locations[i] = interfaces.StorageBackendLocation(uri)
	}
	return storage.NewStorageBackendFactory(s.log).CreateMultiBackend(locations)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readInput returns the value of a literal flag, or the contents of the file
// named by fileFlag, or stdin when the file name is "-".
func readInput(cCtx *cli.Context, literalFlag, fileFlag string) ([]byte, error) {
	if literal := cCtx.String(literalFlag); literal != "" {
		return []byte(literal), nil
	}

	switch name := cCtx.String(fileFlag); name {
	case "":
		return nil, fmt.Errorf("one of --%s or --%s is required", literalFlag, fileFlag)
	case "-":
		return io.ReadAll(cCtx.App.Reader)
	default:
		return os.ReadFile(name)
	}
}
