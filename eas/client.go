package eas

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	goversion "github.com/hashicorp/go-version"

	easbindings "github.com/ruteri/eas-attestation-toolkit/bindings/eas"
	"github.com/ruteri/eas-attestation-toolkit/chain"
	"github.com/ruteri/eas-attestation-toolkit/interfaces"
	"github.com/ruteri/eas-attestation-toolkit/offchain"
)

// saltedSince is the first contract version whose off-chain attestations
// carry a salt.
var saltedSince = goversion.Must(goversion.NewVersion("1.2.0"))

// Client implements the interfaces.AttestationService interface for an EAS
// contract deployed on chain.
type Client struct {
	contract *easbindings.EAS
	conn     *chain.Connection
	address  common.Address
	auth     *bind.TransactOpts
	log      *slog.Logger
}

// NewClient creates a client for the EAS contract at address.
func NewClient(conn *chain.Connection, address common.Address, log *slog.Logger) (*Client, error) {
	contract, err := easbindings.NewEAS(address, conn.Client())
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		contract: contract,
		conn:     conn,
		address:  address,
		log:      log.With(slog.String("eas", address.Hex())),
	}, nil
}

// SetTransactOpts overrides the connection's signer for attestations.
func (c *Client) SetTransactOpts(auth *bind.TransactOpts) {
	c.auth = auth
}

func (c *Client) Address() common.Address {
	return c.address
}

func (c *Client) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if c.auth == nil {
		return c.conn.TransactOpts(ctx)
	}
	opts := *c.auth
	opts.Context = ctx
	return &opts, nil
}

// Attest submits an attestation. request.Value, if any, is sent along with
// the transaction. The UID is only final after WaitForUID.
func (c *Client) Attest(ctx context.Context, request interfaces.AttestationRequest) (*types.Transaction, error) {
	opts, err := c.transactOpts(ctx)
	if err != nil {
		return nil, err
	}

	value := new(big.Int)
	if request.Value != nil {
		value.Set(request.Value)
	}
	opts.Value = value

	tx, err := c.contract.Attest(opts, easbindings.AttestationRequest{
		Schema: request.Schema,
		Data: easbindings.AttestationRequestData{
			Recipient:      request.Recipient,
			ExpirationTime: request.ExpirationTime,
			Revocable:      request.Revocable,
			RefUID:         request.RefUID,
			Data:           request.Data,
			Value:          value,
		},
	})
	if err != nil {
		return nil, chain.ClassifyError(err)
	}

	c.log.Info("Attestation submitted",
		slog.String("tx", tx.Hash().Hex()),
		slog.String("schema", request.Schema.String()),
		slog.String("recipient", request.Recipient.Hex()))
	return tx, nil
}

// WaitForUID waits for an attest transaction and returns the UID from its
// Attested event.
func (c *Client) WaitForUID(ctx context.Context, tx *types.Transaction) (interfaces.UID, error) {
	receipt, err := c.conn.WaitMined(ctx, tx)
	if err != nil {
		return interfaces.UID{}, err
	}

	for _, log := range receipt.Logs {
		if log.Address != c.address {
			continue
		}
		event, err := c.contract.ParseAttested(*log)
		if err != nil {
			continue
		}
		uid := interfaces.UID(event.Uid)
		c.log.Info("Attestation confirmed", slog.String("uid", uid.String()))
		return uid, nil
	}

	return interfaces.UID{}, fmt.Errorf("%w: no Attested event in transaction %s", interfaces.ErrNotFound, tx.Hash().Hex())
}

// AttestAndWait submits an attestation and waits for its UID.
func (c *Client) AttestAndWait(ctx context.Context, request interfaces.AttestationRequest) (interfaces.UID, error) {
	tx, err := c.Attest(ctx, request)
	if err != nil {
		return interfaces.UID{}, err
	}
	return c.WaitForUID(ctx, tx)
}

// GetAttestation fetches an attestation. The contract answers unknown UIDs
// with an empty record, reported here as ErrNotFound.
func (c *Client) GetAttestation(ctx context.Context, uid interfaces.UID) (*interfaces.Attestation, error) {
	att, err := c.contract.GetAttestation(&bind.CallOpts{Context: ctx}, uid)
	if err != nil {
		return nil, chain.ClassifyError(err)
	}

	if att.Uid == [32]byte{} {
		return nil, fmt.Errorf("%w: attestation %s", interfaces.ErrNotFound, uid.String())
	}

	return &interfaces.Attestation{
		UID:            interfaces.UID(att.Uid),
		Schema:         interfaces.UID(att.Schema),
		Time:           att.Time,
		ExpirationTime: att.ExpirationTime,
		RevocationTime: att.RevocationTime,
		RefUID:         interfaces.UID(att.RefUID),
		Recipient:      att.Recipient,
		Attester:       att.Attester,
		Revocable:      att.Revocable,
		Data:           att.Data,
	}, nil
}

// IsAttestationValid reports whether uid refers to an existing attestation.
func (c *Client) IsAttestationValid(ctx context.Context, uid interfaces.UID) (bool, error) {
	valid, err := c.contract.IsAttestationValid(&bind.CallOpts{Context: ctx}, uid)
	if err != nil {
		return false, chain.ClassifyError(err)
	}
	return valid, nil
}

// Version returns the semantic version reported by the contract.
func (c *Client) Version(ctx context.Context) (string, error) {
	version, err := c.contract.Version(&bind.CallOpts{Context: ctx})
	if err != nil {
		return "", chain.ClassifyError(err)
	}
	return version, nil
}

// SchemaRegistry returns the address of the registry the contract uses.
func (c *Client) SchemaRegistry(ctx context.Context) (common.Address, error) {
	address, err := c.contract.GetSchemaRegistry(&bind.CallOpts{Context: ctx})
	if err != nil {
		return common.Address{}, chain.ClassifyError(err)
	}
	return address, nil
}

// Offchain returns a signer/verifier for this deployment, configured from
// the contract address, its reported version and the connection's chain id.
func (c *Client) Offchain(ctx context.Context) (*offchain.Offchain, error) {
	contractVersion, err := c.Version(ctx)
	if err != nil {
		return nil, err
	}

	version, err := OffchainVersionFor(contractVersion)
	if err != nil {
		return nil, err
	}

	c.log.Debug("Off-chain attestations configured",
		slog.String("contractVersion", contractVersion),
		slog.String("attestationVersion", version.String()))

	return offchain.New(offchain.Config{
		Address: c.address,
		Version: contractVersion,
		ChainID: c.conn.ChainID(),
	}, version)
}

// OffchainVersionFor maps an EAS contract version to the off-chain
// attestation version it verifies: Version1 before 1.2.0, Version2 after.
func OffchainVersionFor(contractVersion string) (offchain.Version, error) {
	v, err := goversion.NewVersion(contractVersion)
	if err != nil {
		return 0, fmt.Errorf("invalid contract version %q: %w", contractVersion, err)
	}
	if v.LessThan(saltedSince) {
		return offchain.Version1, nil
	}
	return offchain.Version2, nil
}
