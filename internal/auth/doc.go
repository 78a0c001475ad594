// Package auth implements authentication for the platform services:
// bcrypt password hashing and the password strength policy, JWT access and
// refresh tokens (HS256 shared secret by default, RS256 with a private JWK
// when configured), the chi middleware that enforces bearer tokens and role
// gates, the Redis session blacklist used by logout, and the per-client
// login attempt limiter.
package auth
