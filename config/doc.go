// Package config loads taskql configuration from the environment.
//
// Values are resolved in this order, later sources winning:
//
//  1. Built-in defaults (Default)
//  2. An optional dotenv file, loaded with godotenv. Variables already set in
//     the process environment are not overwritten by the file.
//  3. The process environment
//
// # Variables
//
//	DB_DRIVER               postgres (default) or sqlite
//	DB_USER, DB_PASSWORD    PostgreSQL credentials
//	DB_HOST, DB_PORT        PostgreSQL address (localhost:5432)
//	DB_DATABASE             PostgreSQL database name
//	DB_SSLMODE              PostgreSQL sslmode (disable)
//	DB_PATH                 SQLite database file (tasks.db)
//	DB_INIT_SCHEMA          create the task table on start-up (false)
//	DB_CONNECT_TIMEOUT      dial timeout per connection (5s)
//	TASKQL_BIND_ADDRESS     HTTP listen address (:3000)
//	TASKQL_GRAPHQL_PATH     GraphQL endpoint (/graphql)
//	TASKQL_PLAYGROUND       serve the playground at / (true)
//	TASKQL_CORS_ORIGINS     comma separated allowed origins (*)
//	TASKQL_TIMEOUT          per-request timeout (30s)
//	TASKQL_MAX_QUERY_DEPTH  maximum selection depth (10)
//	TASKQL_RATE_LIMIT       GraphQL requests per second, 0 = unlimited (0)
//	TASKQL_RATE_BURST       burst size when rate limited (10)
//	NATS_URL                NATS server; empty disables task events
//	NATS_SUBJECT_PREFIX     event subject prefix (tasks.events)
//
// Invalid values are reported together as a single Invalid classified error.
// Config implements slog.LogValuer so it can be logged without exposing the
// database password or NATS credentials.
package config
