// Package chain owns the JSON-RPC connection and signing identity shared by
// the registry and attestation clients.
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ruteri/eas-attestation-toolkit/interfaces"
)

// Client is the subset of an Ethereum JSON-RPC client the toolkit uses.
// *ethclient.Client and simulated backend clients satisfy it.
type Client interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

// Connection binds a Client to an optional signing key. It is created once
// and is read-only afterwards.
type Connection struct {
	client  Client
	chainID *big.Int
	key     *ecdsa.PrivateKey
	address common.Address
	log     *slog.Logger
}

// Dial connects to the JSON-RPC endpoint at rpcURL.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrConnectionFailure, err)
	}
	return client, nil
}

// NewConnection queries the chain id and, when privateKeyHex is not empty,
// derives the signing identity. An empty key yields a read-only connection.
func NewConnection(ctx context.Context, client Client, privateKeyHex string, log *slog.Logger) (*Connection, error) {
	if log == nil {
		log = slog.Default()
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: querying chain id: %v", interfaces.ErrConnectionFailure, err)
	}

	conn := &Connection{
		client:  client,
		chainID: chainID,
		log:     log,
	}

	if privateKeyHex != "" {
		key, err := ParsePrivateKey(privateKeyHex)
		if err != nil {
			return nil, err
		}
		conn.key = key
		conn.address = crypto.PubkeyToAddress(key.PublicKey)
		log.Debug("Signing identity loaded", slog.String("address", conn.address.Hex()))
	}

	log.Debug("Connected to chain", slog.String("chainID", chainID.String()))
	return conn, nil
}

// Connect dials rpcURL and wraps the client in a Connection.
func Connect(ctx context.Context, rpcURL, privateKeyHex string, log *slog.Logger) (*Connection, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("%w: RPC_PROVIDER is not set", interfaces.ErrConfigurationMissing)
	}

	client, err := Dial(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	conn, err := NewConnection(ctx, client, privateKeyHex, log)
	if err != nil {
		client.Close()
		return nil, err
	}
	return conn, nil
}

// ParsePrivateKey parses a hex-encoded secp256k1 key, with or without 0x.
func ParsePrivateKey(privateKeyHex string) (*ecdsa.PrivateKey, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"), "0X")
	key, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid PRIVATE_KEY: %v", interfaces.ErrConfigurationMissing, err)
	}
	return key, nil
}

func (c *Connection) Client() Client {
	return c.client
}

func (c *Connection) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

func (c *Connection) HasSigner() bool {
	return c.key != nil
}

// Address returns the signer address, or the zero address for read-only
// connections.
func (c *Connection) Address() common.Address {
	return c.address
}

// PrivateKey returns the signing key, or nil for read-only connections.
func (c *Connection) PrivateKey() *ecdsa.PrivateKey {
	return c.key
}

// TransactOpts returns fresh transactor options bound to ctx.
func (c *Connection) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if c.key == nil {
		return nil, interfaces.ErrNoTransactOpts
	}
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

// WaitMined blocks until tx is included and returns its receipt. A receipt
// with failed status is reported as ErrTransactionReverted.
func (c *Connection) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	c.log.Info("Waiting for transaction", slog.String("tx", tx.Hash().Hex()))

	receipt, err := bind.WaitMined(ctx, c.client, tx)
	if err != nil {
		return nil, ClassifyError(err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: transaction %s failed in block %s", interfaces.ErrTransactionReverted, tx.Hash().Hex(), receipt.BlockNumber)
	}

	c.log.Info("Transaction confirmed",
		slog.String("tx", tx.Hash().Hex()),
		slog.String("block", receipt.BlockNumber.String()),
		slog.Uint64("gasUsed", receipt.GasUsed))
	return receipt, nil
}

// WaitMinedWithTimeout is WaitMined bounded by timeout; zero means no bound.
func (c *Connection) WaitMinedWithTimeout(ctx context.Context, tx *types.Transaction, timeout time.Duration) (*types.Receipt, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return c.WaitMined(ctx, tx)
}

var sentinels = []error{
	interfaces.ErrConfigurationMissing,
	interfaces.ErrConnectionFailure,
	interfaces.ErrTransactionReverted,
	interfaces.ErrInsufficientFunds,
	interfaces.ErrNotFound,
	interfaces.ErrNoTransactOpts,
}

// ClassifyError maps a raw RPC or transactor error onto the toolkit's
// sentinel errors. Errors that already carry a sentinel, and errors that
// match no known pattern, are returned unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient funds"):
		return fmt.Errorf("%w: %v", interfaces.ErrInsufficientFunds, err)
	case strings.Contains(msg, "revert"):
		return fmt.Errorf("%w: %v", interfaces.ErrTransactionReverted, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "eof") {
		return fmt.Errorf("%w: %v", interfaces.ErrConnectionFailure, err)
	}

	return err
}
