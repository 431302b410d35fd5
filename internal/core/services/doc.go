// Package services implements the driving port interfaces.
// Services contain the core extraction logic and orchestrate
// calls to driven ports (adapters).
//
// Services depend only on port interfaces and the domain; the Graph API
// connector, stores and writers are injected.
package services
