// Package health implements the gateway's own liveness and readiness
// endpoints.
//
// Liveness answers 200 whenever the process can serve HTTP. Readiness runs
// the registered checks (upstream status, journal database) and answers
// 503 if any of them fails:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("upstream", func(ctx context.Context) error { ... })
//	r.Get("/healthz", checker.LivenessHandler())
//	r.Get("/readyz", checker.ReadinessHandler())
package health
