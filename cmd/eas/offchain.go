package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/eas-attestation-toolkit/chain"
	easclient "github.com/ruteri/eas-attestation-toolkit/eas"
	"github.com/ruteri/eas-attestation-toolkit/interfaces"
	"github.com/ruteri/eas-attestation-toolkit/offchain"
	"github.com/urfave/cli/v2"
)

var chainIDFlag = &cli.Uint64Flag{
	Name:  "chain-id",
	Usage: "work offline for this chain id instead of querying RPC_PROVIDER; requires --contract-version",
}

var contractVersionFlag = &cli.StringFlag{
	Name:  "contract-version",
	Usage: "EAS contract version used with --chain-id, e.g. 1.3.0",
}

var timeFlag = &cli.Uint64Flag{
	Name:  "time",
	Usage: "unix time to sign with, 0 for now",
}

var outputFlag = &cli.StringFlag{
	Name:  "output",
	Usage: "write the signed document to this file instead of stdout",
}

var signOffchainCommand = &cli.Command{
	Name:  "sign-offchain",
	Usage: "Sign an off-chain attestation and print the shareable document",
	Flags: []cli.Flag{
		schemaUIDFlag, schemaFlag, valuesFlag, valuesFileFlag, dataFlag,
		recipientFlag, expirationFlag, revocableFlag, refUIDFlag, timeFlag,
		chainIDFlag, contractVersionFlag, outputFlag, archiveFlag,
	},
	Action: func(cCtx *cli.Context) error {
		s, err := newSession(cCtx)
		if err != nil {
			return err
		}
		if s.cfg.PrivateKey == "" {
			return fmt.Errorf("%w: PRIVATE_KEY is not set", interfaces.ErrConfigurationMissing)
		}
		key, err := chain.ParsePrivateKey(s.cfg.PrivateKey)
		if err != nil {
			return err
		}

		request, err := attestationRequest(cCtx)
		if err != nil {
			return err
		}

		ctx, cancel := s.context(cCtx)
		defer cancel()

		signer, err := s.offchain(ctx, cCtx)
		if err != nil {
			return err
		}

		signed, err := signer.Sign(offchain.Message{
			Schema:         request.Schema,
			RefUID:         request.RefUID,
			Time:           offchain.Uint64(cCtx.Uint64(timeFlag.Name)),
			ExpirationTime: offchain.Uint64(request.ExpirationTime),
			Recipient:      request.Recipient,
			Revocable:      request.Revocable,
			Data:           request.Data,
		}, key)
		if err != nil {
			s.log.Error("Error signing attestation", "err", err)
			return err
		}

		document, err := json.MarshalIndent(offchain.ShareablePackage{Sig: *signed, Signer: signed.Message.Attester}, "", "  ")
		if err != nil {
			return err
		}

		s.log.Info("Off-chain attestation signed",
			slog.String("uid", signed.UID.String()),
			slog.String("version", signer.Version().String()))

		if cCtx.Bool(archiveFlag.Name) {
			backend, err := s.archive()
			if err != nil {
				return err
			}
			if backend == nil {
				return fmt.Errorf("%w: ARCHIVE_URIS is not set", interfaces.ErrConfigurationMissing)
			}
			id, err := backend.Store(ctx, document, interfaces.OffchainAttestationType)
			if err != nil {
				s.log.Error("Failed to archive attestation", "err", err)
				return err
			}
			s.log.Info("Archived attestation", slog.String("contentId", id.String()))
		}

		if name := cCtx.String(outputFlag.Name); name != "" {
			return os.WriteFile(name, append(document, '\n'), 0644)
		}
		_, err = fmt.Fprintln(cCtx.App.Writer, string(document))
		return err
	},
}

type verifyResult struct {
	Valid  bool           `json:"valid"`
	UID    interfaces.UID `json:"uid"`
	Signer common.Address `json:"signer"`
}

var verifyOffchainCommand = &cli.Command{
	Name:      "verify-offchain",
	Usage:     "Verify a shareable off-chain attestation document",
	ArgsUsage: "<file|->",
	Flags:     []cli.Flag{chainIDFlag, contractVersionFlag},
	Action: func(cCtx *cli.Context) error {
		s, err := newSession(cCtx)
		if err != nil {
			return err
		}

		var document []byte
		if name := cCtx.Args().First(); name == "" || name == "-" {
			document, err = io.ReadAll(cCtx.App.Reader)
		} else {
			document, err = os.ReadFile(name)
		}
		if err != nil {
			return err
		}

		pkg, err := offchain.ParsePackage(document)
		if err != nil {
			return err
		}

		ctx, cancel := s.context(cCtx)
		defer cancel()

		verifier, err := s.offchain(ctx, cCtx)
		if err != nil {
			return err
		}

		valid, err := verifier.VerifyPackage(pkg)
		if err != nil {
			s.log.Error("Malformed attestation", "err", err)
			return err
		}

		if err := printJSON(cCtx.App.Writer, verifyResult{Valid: valid, UID: pkg.Sig.UID, Signer: pkg.Signer}); err != nil {
			return err
		}
		if !valid {
			return cli.Exit("attestation is not valid", 1)
		}
		return nil
	},
}

// offchain returns a signer/verifier for the configured EAS deployment,
// built from --chain-id and --contract-version when given, otherwise from
// the contract reached through RPC_PROVIDER.
func (s *session) offchain(ctx context.Context, cCtx *cli.Context) (*offchain.Offchain, error) {
	if cCtx.IsSet(chainIDFlag.Name) {
		contractVersion := cCtx.String(contractVersionFlag.Name)
		if contractVersion == "" {
			return nil, fmt.Errorf("--%s requires --%s", chainIDFlag.Name, contractVersionFlag.Name)
		}
		version, err := easclient.OffchainVersionFor(contractVersion)
		if err != nil {
			return nil, err
		}
		return offchain.New(offchain.Config{
			Address: s.cfg.EAS(),
			Version: contractVersion,
			ChainID: new(big.Int).SetUint64(cCtx.Uint64(chainIDFlag.Name)),
		}, version)
	}

	conn, err := s.connect(ctx, false)
	if err != nil {
		return nil, err
	}
	easClient, err := s.eas(conn)
	if err != nil {
		return nil, err
	}
	return easClient.Offchain(ctx)
}
