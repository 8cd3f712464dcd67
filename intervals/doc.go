// Package intervals translates tool calls into intervals.icu API requests.
//
// Every request flows through a single Executor that borrows one shared,
// connection-pooled HTTP client from a ClientManager. The executor never
// returns Go errors for per-request problems; instead every call yields a
// Result that is either a decoded JSON payload or a Failure.
//
// # Usage
//
//	clients := intervals.NewClientManager(logger, intervals.WithUserAgent("intervals-mcp/1.0"))
//	defer clients.Release()
//
//	exec := intervals.NewExecutor(clients, logger)
//	res := exec.Execute(ctx, cfg, intervals.RequestSpec{
//		Path:  "/athlete/i12345/activities",
//		Query: map[string]any{"oldest": "2025-10-25", "newest": "2025-10-25"},
//	})
//	if f := res.Failure(); f != nil {
//		fmt.Println(f.Message)
//		return
//	}
//	payload, _ := res.Payload()
//
// # Failures
//
// A Failure always marshals to the same shape:
//
//	{"error": true, "status_code": 401, "message": "..."}
//
// status_code is null when no HTTP response was received (transport
// problems, timeouts, cancellation, invalid input). A successful response
// whose body cannot be decoded, or exceeds the size limit, keeps its real
// status code. HTTP error statuses are mapped to fixed messages by Classify.
//
// Integers in decoded payloads are int64 when they fit, so large ids keep
// full precision; other numbers are float64.
//
// No retries are performed; rate limiting (429) and maintenance (503) are
// surfaced to the caller like any other failure.
package intervals
