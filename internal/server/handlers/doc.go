// Package handlers provides general infrastructure HTTP handlers
// (health, readiness, version, jwks) shared by all platform services.
package handlers
