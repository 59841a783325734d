package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ruteri/eas-attestation-toolkit/interfaces"
	"github.com/ruteri/eas-attestation-toolkit/schema"
	"github.com/urfave/cli/v2"
)

var schemaFlag = &cli.StringFlag{
	Name:  "schema",
	Value: defaultSchema,
	Usage: "schema definition, e.g. \"bytes32 proposalId, bool vote\"",
}

var valuesFlag = &cli.StringFlag{
	Name:  "values",
	Usage: "JSON object mapping field names to values",
}

var valuesFileFlag = &cli.StringFlag{
	Name:  "values-file",
	Usage: "file holding the JSON values object, - for stdin",
}

var resolverFlag = &cli.StringFlag{
	Name:  "resolver",
	Usage: "resolver contract address, empty for none",
}

var revocableFlag = &cli.BoolFlag{
	Name:  "revocable",
	Value: false,
	Usage: "whether attestations under the schema can be revoked",
}

var encodeCommand = &cli.Command{
	Name:  "encode",
	Usage: "ABI-encode a JSON values object according to a schema",
	Flags: []cli.Flag{schemaFlag, valuesFlag, valuesFileFlag},
	Action: func(cCtx *cli.Context) error {
		data, err := encodeValues(cCtx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cCtx.App.Writer, hexutil.Encode(data))
		return err
	},
}

var decodeCommand = &cli.Command{
	Name:      "decode",
	Usage:     "Decode an ABI-encoded payload according to a schema",
	ArgsUsage: "<0x-data>",
	Flags:     []cli.Flag{schemaFlag},
	Action: func(cCtx *cli.Context) error {
		s, err := schema.Parse(cCtx.String(schemaFlag.Name))
		if err != nil {
			return err
		}
		data, err := hexutil.Decode(cCtx.Args().First())
		if err != nil {
			return fmt.Errorf("%w: %v", interfaces.ErrMalformedPayload, err)
		}
		values, err := s.Decode(data)
		if err != nil {
			return err
		}
		return printJSON(cCtx.App.Writer, values)
	},
}

var schemaUIDCommand = &cli.Command{
	Name:  "schema-uid",
	Usage: "Compute the registry UID of a schema without registering it",
	Flags: []cli.Flag{schemaFlag, resolverFlag, revocableFlag},
	Action: func(cCtx *cli.Context) error {
		resolver, err := parseResolver(cCtx.String(resolverFlag.Name))
		if err != nil {
			return err
		}
		uid := schema.UID(cCtx.String(schemaFlag.Name), resolver, cCtx.Bool(revocableFlag.Name))
		_, err = fmt.Fprintln(cCtx.App.Writer, uid.String())
		return err
	},
}

var archiveFlag = &cli.BoolFlag{
	Name:  "archive",
	Usage: "also store the content in the ARCHIVE_URIS backends",
}

var hashContentCommand = &cli.Command{
	Name:      "hash-content",
	Usage:     "Print the SHA-256 content id of a file, for use as articleHash",
	ArgsUsage: "<file|->",
	Flags:     []cli.Flag{archiveFlag},
	Action: func(cCtx *cli.Context) error {
		var (
			content []byte
			err     error
		)
		if name := cCtx.Args().First(); name == "" || name == "-" {
			content, err = io.ReadAll(cCtx.App.Reader)
		} else {
			content, err = os.ReadFile(name)
		}
		if err != nil {
			return err
		}

		id := interfaces.ComputeID(content)

		if cCtx.Bool(archiveFlag.Name) {
			s, err := newSession(cCtx)
			if err != nil {
				return err
			}
			backend, err := s.archive()
			if err != nil {
				return err
			}
			if backend == nil {
				return fmt.Errorf("%w: ARCHIVE_URIS is not set", interfaces.ErrConfigurationMissing)
			}
			if _, err := backend.Store(cCtx.Context, content, interfaces.ArticleType); err != nil {
				s.log.Error("Failed to archive content", "err", err)
				return err
			}
			s.log.Info("Archived content", slog.String("contentId", id.String()), slog.String("backend", backend.LocationURI()))
		}

		_, err = fmt.Fprintln(cCtx.App.Writer, "0x"+id.String())
		return err
	},
}

// encodeValues encodes the --values or --values-file object against --schema.
func encodeValues(cCtx *cli.Context) ([]byte, error) {
	s, err := schema.Parse(cCtx.String(schemaFlag.Name))
	if err != nil {
		return nil, err
	}

	raw, err := readInput(cCtx, valuesFlag.Name, valuesFileFlag.Name)
	if err != nil {
		return nil, err
	}

	named, err := parseValues(raw)
	if err != nil {
		return nil, err
	}
	return s.EncodeMap(named)
}

// parseValues decodes a JSON object keeping numbers exact.
func parseValues(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var named map[string]any
	if err := dec.Decode(&named); err != nil {
		return nil, fmt.Errorf("%w: values must be a JSON object: %v", interfaces.ErrTypeMismatch, err)
	}
	return named, nil
}

func parseResolver(s string) (common.Address, error) {
	if s == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid resolver address %q", s)
	}
	return common.HexToAddress(s), nil
}
