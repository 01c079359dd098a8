// Package health provides health reporting for taskql.
//
// # Health States
//
//   - healthy: the dependency answered
//   - degraded: the service works with reduced functionality (for example,
//     events cannot be published but the store is reachable)
//   - unhealthy: the dependency is not reachable
//
// # Usage
//
//	checker := health.NewChecker("taskql", 5*time.Second, metrics)
//	checker.Register("store", func(ctx context.Context) health.Status {
//	    return health.FromError("store", store.Ping(ctx), "store reachable")
//	})
//	status := checker.Check(ctx)
//
// Messages built from errors are sanitized: URLs, file paths, IP addresses,
// ports and credential assignments are replaced with placeholders so the
// endpoint never leaks connection details.
package health
