// Package session provides session management for SumStack.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Per-session countdown ownership
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the session registry. Each service.Session carries its own
// engine, rule preset and ticker.Source. All sessions of a manager share one
// engine.RecordTracker, so the best score is process-wide.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs generated with cryptographic randomness.
// Lookups are case-insensitive.
//
// Usage:
//
//	records := engine.NewRecordTracker(store)
//	manager := session.NewManager(session.WithRecords(records))
//
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Cleanup:
//
// Deleting a session, expiring it, or closing the manager stops the
// session's countdown before the session is dropped.
package session
