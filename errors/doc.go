// Package errors provides standardized error handling for taskql.
//
// # Overview
//
// Errors fall into three classes: Transient (the store or NATS could not be
// reached, try again), Invalid (bad input or configuration) and Fatal
// (anything else). Classify answers with the class; IsTransient drives
// pkg/retry and the gateway maps each class to a GraphQL extension code.
//
// Store code reports connection failures with Unavailable, which also makes
// the error match ErrStorageUnavailable:
//
//	errors.Unavailable(err, "PostgresStore", "List", "connect")
//	errors.WrapInvalid(err, "Config", "Validate", "parse DB_PORT")
//	errors.WrapFatal(err, "SQLiteStore", "List", "query tasks")
//
// Messages read "component.method: action failed: cause" and keep the chain
// intact for errors.Is and errors.As. Classification is by type only; the
// message text is never inspected.
package errors
