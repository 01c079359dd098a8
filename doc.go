// Package taskql is a small GraphQL API over a relational task table.
//
// A task has an id assigned by the store, a name, and a completion flag.
// The API exposes one query and three mutations:
//
//	query    { tasks { id name iscompleted } }
//	mutation { addTask(name: "buy milk") { id } }
//	mutation { toggleTask(id: 1) { iscompleted } }
//	mutation { deleteTask(id: 1) }
//
// # Layout
//
//	cmd/taskql         entry point: flags, logging, wiring, signal handling
//	config             environment and dotenv configuration
//	task               the Task entity and mutation events
//	storage            the Store interface
//	storage/postgres   PostgreSQL backend (pgx), one connection per operation
//	storage/sqlite     SQLite backend for local development and tests
//	events             Store decorator publishing mutations to NATS
//	natsclient         NATS connection management
//	gateway/graphql    schema, resolvers and the HTTP server
//	health, metric     /health and /metrics
//	errors             classified errors shared by every package
//
// The service keeps no task state in memory. Every GraphQL operation opens a
// store connection, runs its statements and closes the connection before the
// response is written, so any number of instances can share one database.
//
// # Running
//
//	export DB_USER=postgres DB_PASSWORD=postgres DB_DATABASE=tasks
//	go run ./cmd/taskql
//
// The GraphQL endpoint listens on :3000/graphql and the playground on :3000/.
package taskql
