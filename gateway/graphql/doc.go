// Package graphql serves the task API over HTTP.
//
// The schema is embedded from schema.graphql:
//
//	type Task { id: Int name: String iscompleted: Boolean }
//	type Query { tasks: [Task] }
//	type Mutation {
//	  addTask(name: String): Task
//	  deleteTask(id: Int): Boolean
//	  toggleTask(id: Int): Task
//	}
//
// Execution uses graph-gophers/graphql-go with reflective resolvers bound at
// start-up. Each root field calls the storage.Store once; the resolver keeps
// no task state between requests.
//
// # Routes
//
//	POST|GET /graphql   GraphQL requests (GET for queries only)
//	GET /               GraphQL Playground, when enabled
//	GET /health         aggregate health of the store and NATS
//	GET /metrics        Prometheus exposition, when a registry is attached
//
// # Errors
//
// Resolver failures become GraphQL field errors with a "code" extension:
//
//	NOT_FOUND            toggleTask on an unknown id ("Task not found")
//	INVALID_INPUT        the store rejected an argument as invalid
//	SERVICE_UNAVAILABLE  the store could not be reached (retryable)
//	DEADLINE_EXCEEDED    the per-request timeout elapsed
//	CANCELLED            the client went away
//	INTERNAL_ERROR       anything else, such as a missing task table
//
// Store error text is logged but never returned to the caller. Requests that
// fail before execution (bad JSON, missing query, a mutation over GET) are
// answered with a gqlerror list and a 4xx status.
//
// # Usage
//
//	resolver, _ := graphql.NewResolver(store, logger, registry.CoreMetrics())
//	server, _ := graphql.NewServer(cfg, resolver, logger,
//	    graphql.WithMetrics(registry),
//	    graphql.WithHealthChecker(checker))
//	_ = server.Setup()
//	_ = server.Start(ctx, nil)
package graphql
