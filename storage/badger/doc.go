// Package badger implements the storage interfaces on BadgerDB.
//
// One Backend wraps a single BadgerDB instance shared by all stores.
// Keys are namespaced by string prefixes; composite index keys encode
// timestamps and ids in BigEndian so lexicographic iteration order is
// chronological. Use NewMemoryStores in tests to run against an
// in-memory database.
package badger
