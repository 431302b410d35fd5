// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Connector: Extracts records from the Graph API
//   - StateStore: Bookmark persistence
//   - RecordWriter: Singer message output
//   - ConfigStore: Tap configuration
//   - TokenProvider: User access token
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - RunStore: Sync run history. Without it, runs are not recorded.
//   - RecordValidator: Schema validation. Without it, records are written as returned.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
