// Package schemaregistry contains a binding for the EAS SchemaRegistry contract.
package schemaregistry

import (
	"errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// SchemaRecord is an auto generated low-level Go binding around an user-defined struct.
type SchemaRecord struct {
	Uid       [32]byte
	Resolver  common.Address
	Revocable bool
	Schema    string
}

// SchemaRegistryMetaData contains all meta data concerning the SchemaRegistry contract.
var SchemaRegistryMetaData = &bind.MetaData{
	ABI: `[
	{"type":"function","name":"register","stateMutability":"nonpayable",
	 "inputs":[{"name":"schema","type":"string"},{"name":"resolver","type":"address"},{"name":"revocable","type":"bool"}],
	 "outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"getSchema","stateMutability":"view",
	 "inputs":[{"name":"uid","type":"bytes32"}],
	 "outputs":[{"name":"","type":"tuple","internalType":"struct SchemaRecord","components":[
		{"name":"uid","type":"bytes32"},{"name":"resolver","type":"address"},{"name":"revocable","type":"bool"},{"name":"schema","type":"string"}]}]},
	{"type":"function","name":"version","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"event","name":"Registered","anonymous":false,
	 "inputs":[{"name":"uid","type":"bytes32","indexed":true},{"name":"registerer","type":"address","indexed":true},
		{"name":"schema","type":"tuple","indexed":false,"internalType":"struct SchemaRecord","components":[
			{"name":"uid","type":"bytes32"},{"name":"resolver","type":"address"},{"name":"revocable","type":"bool"},{"name":"schema","type":"string"}]}]}
]`,
}

// LegacyRegisteredTopic is the topic of Registered(bytes32 indexed uid, address registerer)
// emitted by registry deployments older than 1.3.0.
var LegacyRegisteredTopic = crypto.Keccak256Hash([]byte("Registered(bytes32,address)"))

// ErrNotRegisteredEvent is returned when a log is not a Registered event.
var ErrNotRegisteredEvent = errors.New("log is not a Registered event")

// SchemaRegistry is a binding around the SchemaRegistry contract.
type SchemaRegistry struct {
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
}

// SchemaRegistryRegistered represents a Registered event raised by the SchemaRegistry contract.
type SchemaRegistryRegistered struct {
	Uid        [32]byte
	Registerer common.Address
	Raw        types.Log
}

// NewSchemaRegistry creates a new instance of SchemaRegistry, bound to a specific deployed contract.
func NewSchemaRegistry(address common.Address, backend bind.ContractBackend) (*SchemaRegistry, error) {
	parsed, err := SchemaRegistryMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	if parsed == nil {
		return nil, errors.New("GetABI returned nil")
	}
	contract := bind.NewBoundContract(address, *parsed, backend, backend, backend)
	return &SchemaRegistry{address: address, abi: *parsed, contract: contract}, nil
}

// Address returns the address the binding is bound to.
func (_SchemaRegistry *SchemaRegistry) Address() common.Address {
	return _SchemaRegistry.address
}

// GetSchema is a free data retrieval call binding the contract method 0xa2ea7c6e.
//
// Solidity: function getSchema(bytes32 uid) view returns((bytes32,address,bool,string))
func (_SchemaRegistry *SchemaRegistry) GetSchema(opts *bind.CallOpts, uid [32]byte) (SchemaRecord, error) {
	var out []interface{}
	err := _SchemaRegistry.contract.Call(opts, &out, "getSchema", uid)
	if err != nil {
		return *new(SchemaRecord), err
	}

	out0 := *abi.ConvertType(out[0], new(SchemaRecord)).(*SchemaRecord)
	return out0, err
}

// Version is a free data retrieval call binding the contract method 0x54fd4d50.
//
// Solidity: function version() view returns(string)
func (_SchemaRegistry *SchemaRegistry) Version(opts *bind.CallOpts) (string, error) {
	var out []interface{}
	err := _SchemaRegistry.contract.Call(opts, &out, "version")
	if err != nil {
		return *new(string), err
	}

	out0 := *abi.ConvertType(out[0], new(string)).(*string)
	return out0, err
}

// Register is a paid mutator transaction binding the contract method 0x60d7a278.
//
// Solidity: function register(string schema, address resolver, bool revocable) returns(bytes32)
func (_SchemaRegistry *SchemaRegistry) Register(opts *bind.TransactOpts, schema string, resolver common.Address, revocable bool) (*types.Transaction, error) {
	return _SchemaRegistry.contract.Transact(opts, "register", schema, resolver, revocable)
}

// ParseRegistered is a log parse operation binding the contract event Registered.
// Both the current event layout and the pre-1.3.0 layout are accepted.
func (_SchemaRegistry *SchemaRegistry) ParseRegistered(log types.Log) (*SchemaRegistryRegistered, error) {
	if len(log.Topics) < 2 {
		return nil, ErrNotRegisteredEvent
	}

	event := &SchemaRegistryRegistered{Uid: log.Topics[1], Raw: log}
	switch log.Topics[0] {
	case _SchemaRegistry.abi.Events["Registered"].ID:
		if len(log.Topics) < 3 {
			return nil, ErrNotRegisteredEvent
		}
		event.Registerer = common.BytesToAddress(log.Topics[2].Bytes())
	case LegacyRegisteredTopic:
		if len(log.Data) < 32 {
			return nil, ErrNotRegisteredEvent
		}
		event.Registerer = common.BytesToAddress(log.Data[:32])
	default:
		return nil, ErrNotRegisteredEvent
	}
	return event, nil
}
