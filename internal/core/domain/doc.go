// Package domain defines the core entities of the Facebook Pages tap.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Stream: A declared output stream and its replication settings
//   - Partition: One page's extraction context
//   - Record: A flat JSON object emitted on a stream
//   - Bookmark / State: Per-partition replication cursors
//   - Catalog: The Singer catalog used for discovery and selection
//   - TapConfig: The user supplied configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
