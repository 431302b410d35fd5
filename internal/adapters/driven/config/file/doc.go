// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: tap configuration in JSON, TOML or YAML with
//     TAP_FACEBOOK_PAGES_* environment overrides
//   - LoadState / LoadCatalog: Singer input files
package file
