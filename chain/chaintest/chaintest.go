// Package chaintest provides a simulated chain and tiny hand-assembled
// contracts for exercising the clients without the real EAS deployment.
package chaintest

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ruteri/eas-attestation-toolkit/chain"
)

// ChainID of the simulated backend.
var ChainID = big.NewInt(1337)

// SetupTestChain starts a simulated backend with one account funded with
// 10 ETH and returns a signing connection for it.
func SetupTestChain() (*simulated.Backend, *chain.Connection, *ecdsa.PrivateKey, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, nil, nil, err
	}

	balance := new(big.Int)
	balance.SetString("10000000000000000000", 10) // 10 ETH

	genesisAlloc := map[common.Address]types.Account{
		crypto.PubkeyToAddress(privateKey.PublicKey): {
			Balance: balance,
		},
	}

	blockGasLimit := uint64(8000000)
	backend := simulated.NewBackend(genesisAlloc, simulated.WithBlockGasLimit(blockGasLimit))

	conn, err := chain.NewConnection(context.Background(), backend.Client(), hex.EncodeToString(crypto.FromECDSA(privateKey)), slog.Default())
	if err != nil {
		backend.Close()
		return nil, nil, nil, err
	}
	return backend, conn, privateKey, nil
}

// DeployCode deploys runtime as the code of a new contract and mines it.
func DeployCode(backend *simulated.Backend, conn *chain.Connection, runtime []byte) (common.Address, error) {
	opts, err := conn.TransactOpts(context.Background())
	if err != nil {
		return common.Address{}, err
	}

	contractAddr, tx, _, err := bind.DeployContract(opts, abi.ABI{}, initCode(runtime), backend.Client())
	if err != nil {
		return common.Address{}, err
	}
	backend.Commit()

	receipt, err := backend.Client().TransactionReceipt(context.Background(), tx.Hash())
	if err != nil {
		return common.Address{}, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return common.Address{}, fmt.Errorf("contract deployment failed")
	}
	return contractAddr, nil
}

// EVM opcodes used by the generated contracts.
const (
	opCaller   = 0x33
	opMstore   = 0x52
	opCodecopy = 0x39
	opDup1     = 0x80
	opLog2     = 0xa2
	opLog4     = 0xa4
	opPush1    = 0x60
	opPush2    = 0x61
	opPush32   = 0x7f
	opReturn   = 0xf3
	opRevert   = 0xfd
)

// initCode copies runtime into memory and returns it as the contract code.
func initCode(runtime []byte) []byte {
	const prefixLen = 12
	code := []byte{
		opPush2, byte(len(runtime) >> 8), byte(len(runtime)),
		opDup1,
		opPush1, prefixLen,
		opPush1, 0x00,
		opCodecopy,
		opPush1, 0x00,
		opReturn,
	}
	return append(code, runtime...)
}

func push32(word [32]byte) []byte {
	return append([]byte{opPush32}, word[:]...)
}

// returnWord stores word at memory 0 and returns it.
func returnWord(word [32]byte) []byte {
	code := push32(word)
	code = append(code, opPush1, 0x00, opMstore)
	return append(code, opPush1, 0x20, opPush1, 0x00, opReturn)
}

// AttestedEmitter returns runtime code that, whatever the calldata, emits
// Attested(recipient, msg.sender, uid, schemaUID) and returns uid.
func AttestedEmitter(recipient common.Address, uid, schemaUID [32]byte) []byte {
	topic0 := crypto.Keccak256Hash([]byte("Attested(address,address,bytes32,bytes32)"))

	code := push32(uid)
	code = append(code, opPush1, 0x00, opMstore)
	code = append(code, push32(schemaUID)...)
	code = append(code, opCaller)
	code = append(code, push32(common.BytesToHash(recipient.Bytes()))...)
	code = append(code, push32(topic0)...)
	code = append(code, opPush1, 0x20, opPush1, 0x00, opLog4)
	return append(code, returnWord(uid)...)
}

// LegacyRegisteredEmitter returns runtime code that, whatever the calldata,
// emits the pre-1.3.0 Registered(uid, msg.sender) event and returns uid.
func LegacyRegisteredEmitter(uid [32]byte) []byte {
	topic0 := crypto.Keccak256Hash([]byte("Registered(bytes32,address)"))

	code := []byte{opCaller, opPush1, 0x00, opMstore}
	code = append(code, push32(uid)...)
	code = append(code, push32(topic0)...)
	code = append(code, opPush1, 0x20, opPush1, 0x00, opLog2)
	return append(code, returnWord(uid)...)
}

// Reverter returns runtime code that reverts every call.
func Reverter() []byte {
	return []byte{opPush1, 0x00, opDup1, opRevert}
}

// Returner returns runtime code that answers every call with data, typically
// a pre-encoded ABI return value.
func Returner(data []byte) []byte {
	const prefixLen = 15
	size := []byte{byte(len(data) >> 8), byte(len(data))}
	code := []byte{
		opPush2, size[0], size[1],
		opPush2, 0x00, prefixLen,
		opPush1, 0x00,
		opCodecopy,
		opPush2, size[0], size[1],
		opPush1, 0x00,
		opReturn,
	}
	return append(code, data...)
}
