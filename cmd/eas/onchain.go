package main

import (
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	easclient "github.com/ruteri/eas-attestation-toolkit/eas"
	"github.com/ruteri/eas-attestation-toolkit/interfaces"
	"github.com/ruteri/eas-attestation-toolkit/schema"
	"github.com/ruteri/eas-attestation-toolkit/storage"
	"github.com/urfave/cli/v2"
)

// UID of defaultSchema as registered on Sepolia.
const defaultSchemaUID = "0x0f90dc33213e0876a9125c7534a806b6366907943cbabd19dd6a9df5784d1a7a"

var uidFlag = &cli.StringFlag{
	Name:     "uid",
	Required: true,
	Usage:    "32-byte hex identifier",
}

var registerSchemaCommand = &cli.Command{
	Name:  "register-schema",
	Usage: "Register a schema with the SchemaRegistry and print its UID",
	Flags: []cli.Flag{schemaFlag, resolverFlag, revocableFlag},
	Action: func(cCtx *cli.Context) error {
		s, err := newSession(cCtx)
		if err != nil {
			return err
		}

		definition := cCtx.String(schemaFlag.Name)
		if _, err := schema.Parse(definition); err != nil {
			return err
		}
		resolver, err := parseResolver(cCtx.String(resolverFlag.Name))
		if err != nil {
			return err
		}

		ctx, cancel := s.context(cCtx)
		defer cancel()

		conn, err := s.connect(ctx, true)
		if err != nil {
			return err
		}
		registryClient, err := s.registry(conn)
		if err != nil {
			return err
		}

		uid, err := registryClient.RegisterAndWait(ctx, definition, resolver, cCtx.Bool(revocableFlag.Name))
		if err != nil {
			s.log.Error("Error registering schema", "err", err)
			return err
		}

		_, err = fmt.Fprintf(cCtx.App.Writer, "Schema UID: %s\n", uid.String())
		return err
	},
}

var fetchSchemaCommand = &cli.Command{
	Name:  "fetch-schema",
	Usage: "Fetch a registered schema record",
	Flags: []cli.Flag{uidFlag},
	Action: func(cCtx *cli.Context) error {
		s, err := newSession(cCtx)
		if err != nil {
			return err
		}
		uid, err := interfaces.NewUIDFromHex(cCtx.String(uidFlag.Name))
		if err != nil {
			return err
		}

		ctx, cancel := s.context(cCtx)
		defer cancel()

		conn, err := s.connect(ctx, false)
		if err != nil {
			return err
		}
		registryClient, err := s.registry(conn)
		if err != nil {
			return err
		}

		record, err := registryClient.GetSchema(ctx, uid)
		if err != nil {
			s.log.Error("Error fetching schema", slog.String("uid", uid.String()), "err", err)
			return err
		}
		return printJSON(cCtx.App.Writer, record)
	},
}

var getAttestationCommand = &cli.Command{
	Name:  "get-attestation",
	Usage: "Fetch an on-chain attestation and decode its data",
	Flags: []cli.Flag{uidFlag},
	Action: func(cCtx *cli.Context) error {
		s, err := newSession(cCtx)
		if err != nil {
			return err
		}
		uid, err := interfaces.NewUIDFromHex(cCtx.String(uidFlag.Name))
		if err != nil {
			return err
		}

		ctx, cancel := s.context(cCtx)
		defer cancel()

		conn, err := s.connect(ctx, false)
		if err != nil {
			return err
		}
		easClient, err := s.eas(conn)
		if err != nil {
			return err
		}

		att, err := easClient.GetAttestation(ctx, uid)
		if err != nil {
			s.log.Error("Error fetching attestation", slog.String("uid", uid.String()), "err", err)
			return err
		}

		output := struct {
			*interfaces.Attestation
			Data    hexutil.Bytes  `json:"data"`
			Decoded []schema.Value `json:"decoded,omitempty"`
		}{Attestation: att, Data: att.Data}

		// The payload is decoded on a best-effort basis; an unknown or
		// mismatching schema still prints the raw record.
		registryClient, err := s.registry(conn)
		if err == nil {
			if record, err := registryClient.GetSchema(ctx, att.Schema); err == nil {
				if parsed, err := schema.Parse(record.Schema); err == nil {
					if decoded, err := parsed.Decode(att.Data); err == nil {
						output.Decoded = decoded
					} else {
						s.log.Warn("Attestation data does not match its schema", "err", err)
					}
				}
			}
		}

		return printJSON(cCtx.App.Writer, output)
	},
}

var schemaUIDFlag = &cli.StringFlag{
	Name:  "schema-uid",
	Value: defaultSchemaUID,
	Usage: "UID of the registered schema to attest under",
}

var recipientFlag = &cli.StringFlag{
	Name:  "recipient",
	Value: defaultRecipient,
	Usage: "attestation recipient address",
}

var expirationFlag = &cli.Uint64Flag{
	Name:  "expiration-time",
	Value: 0,
	Usage: "unix time the attestation expires at, 0 for never",
}

var refUIDFlag = &cli.StringFlag{
	Name:  "ref-uid",
	Usage: "UID of a referenced attestation",
}

var dataFlag = &cli.StringFlag{
	Name:  "data",
	Usage: "pre-encoded 0x payload; replaces --values",
}

var attestCommand = &cli.Command{
	Name:  "attest",
	Usage: "Create an on-chain attestation and append its UID to the result log",
	Flags: []cli.Flag{
		schemaUIDFlag, schemaFlag, valuesFlag, valuesFileFlag, dataFlag,
		recipientFlag, expirationFlag, revocableFlag, refUIDFlag,
	},
	Action: func(cCtx *cli.Context) error {
		s, err := newSession(cCtx)
		if err != nil {
			return err
		}

		request, err := attestationRequest(cCtx)
		if err != nil {
			return err
		}

		ctx, cancel := s.context(cCtx)
		defer cancel()

		conn, err := s.connect(ctx, true)
		if err != nil {
			return err
		}
		easClient, err := s.eas(conn)
		if err != nil {
			return err
		}

		resultLog := storage.NewFileResultLog(s.cfg.ResultLog, s.log)
		uid, err := easclient.AttestAndRecord(ctx, easClient, resultLog, *request)
		if err != nil {
			s.log.Error("Error creating attestation", "err", err)
			if uid.IsZero() {
				return err
			}
		}

		_, printErr := fmt.Fprintf(cCtx.App.Writer, "New Attestation UID: %s\n", uid.String())
		if err != nil {
			return err
		}
		return printErr
	},
}

// attestationRequest assembles the attest flags into a request. The data is
// either --data or the --values object encoded against --schema.
func attestationRequest(cCtx *cli.Context) (*interfaces.AttestationRequest, error) {
	schemaUID, err := interfaces.NewUIDFromHex(cCtx.String(schemaUIDFlag.Name))
	if err != nil {
		return nil, err
	}

	recipient := cCtx.String(recipientFlag.Name)
	if !common.IsHexAddress(recipient) {
		return nil, fmt.Errorf("invalid recipient address %q", recipient)
	}

	var refUID interfaces.UID
	if ref := cCtx.String(refUIDFlag.Name); ref != "" {
		if refUID, err = interfaces.NewUIDFromHex(ref); err != nil {
			return nil, err
		}
	}

	var data []byte
	if raw := cCtx.String(dataFlag.Name); raw != "" {
		if data, err = hexutil.Decode(raw); err != nil {
			return nil, fmt.Errorf("%w: %v", interfaces.ErrMalformedPayload, err)
		}
	} else if data, err = encodeValues(cCtx); err != nil {
		return nil, err
	}

	return &interfaces.AttestationRequest{
		Schema:         schemaUID,
		Recipient:      common.HexToAddress(recipient),
		ExpirationTime: cCtx.Uint64(expirationFlag.Name),
		Revocable:      cCtx.Bool(revocableFlag.Name),
		RefUID:         refUID,
		Data:           data,
	}, nil
}
