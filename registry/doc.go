// Package registry provides a client for the EAS SchemaRegistry contract,
// which stores schema definitions under their UID.
//
// A schema UID is keccak256(schema, resolver, revocable), so the same schema
// string registered with a different resolver or revocability is a different
// schema. Registering an existing schema reverts.
//
// # Clients
//
// SchemaRegistryClient talks to a deployed contract through a chain.Connection.
// MockSchemaRegistry keeps registrations in memory with the same semantics and
// is used by tests and by the in-memory attestation service. MockRegistry is a
// testify mock of interfaces.SchemaRegistry.
//
// # Transaction Operations
//
// Register only submits the transaction. The UID is known for certain once
// WaitForUID has read the Registered event from the receipt:
//
//	client, err := registry.NewSchemaRegistryClient(conn, registryAddress, logger)
//	if err != nil {
//	    return err
//	}
//
//	tx, err := client.Register(ctx, "bytes32 proposalId, bool vote", common.Address{}, true)
//	if err != nil {
//	    return err
//	}
//	uid, err := client.WaitForUID(ctx, tx)
//
// Read-only operations such as GetSchema work on connections without a
// signing key.
package registry
