// Package shutdown coordinates graceful process termination.
//
// Register cleanup hooks with OnShutdown in startup order; Wait blocks
// until SIGINT/SIGTERM (or context cancellation) and then runs them in
// reverse order under a shared timeout.
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown(closeStorage)
//	h.OnShutdown(stopHTTP)
//	err := h.Wait()
package shutdown
