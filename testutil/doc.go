// Package testutil provides in-memory test doubles for taskql packages.
//
// MockPublisher stands in for the NATS client wherever an events.Publisher is
// expected and records every published payload by subject. MockStore is an
// in-memory storage.Store with injectable failures, used to drive the GraphQL
// layer through error paths a real database cannot easily reproduce.
//
// Both types are safe for concurrent use.
package testutil
