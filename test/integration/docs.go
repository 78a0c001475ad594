// Package integration contains end-to-end tests for the platform services.
//
// These tests verify the services handle API requests correctly (expected responses,
// error handling, database persistence, etc). Each test runs against a temporary
// database with migrations applied, and the service under test is started in-process.
//
// These tests assume the auth and math solver packages are working correctly (tested
// separately). If bugs are introduced in lower-level packages, there will be cascading
// failures here - fix the low-level problems first.
package integration
