//go:build e2e

// Package e2e runs the smoke scenarios in real Chrome against the fixture
// server.
//
// These tests are isolated from the standard test suite via build tags.
// They require a Chrome browser (auto-downloaded by Rod if not present)
// and are intended for CI pipelines or explicit local testing.
//
// Running E2E tests:
//
//	go test -tags=e2e ./e2e/...
//
// Running all tests except E2E:
//
//	go test ./...
//
// E2E tests use:
//   - Rod for browser automation (Chrome DevTools Protocol)
//   - the eduapp-fixture server as the app under test
//   - browser.Client from pkg/browser as the scenario driver
//
// Test isolation:
// Each test starts its own server on a random port and launches
// its own browser instance.
package e2e
