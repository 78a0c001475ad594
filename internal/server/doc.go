// Package server provides the shared HTTP server used by all five
// platform services (user, payment, content, math-solver, admin).
//
// the server is configured through environment variables
// (see app/internal/config/config.go for details)
//
// Each service passes a RouteRegistrar to NewServer to attach its own
// routes; the common infrastructure routes (health, readiness, version)
// are registered for every service.
//
// middleware is in app/internal/server/middleware
package server
