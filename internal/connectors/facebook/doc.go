// Package facebook implements a connector for the Facebook Pages Graph API.
//
// The connector extracts the page node, its posts with their attachments and
// tagged profiles, page-level insights and post-level insights for every
// configured page. Each page is a partition; every stream is bookmarked per
// partition.
//
// # Architecture
//
// The connector follows the driven port pattern defined in [driven.Connector].
// It comprises the following components:
//
//   - Connector: resolves page tokens and runs stream partitions
//   - Client: handles Graph API communication with rate limiting
//   - Controller: walks since/until windows and paging links
//   - Flatten: reshapes responses into one record per output row
//
// # Authentication
//
// The configured access token is a long-lived user token. Before extraction
// it is exchanged for a page-scoped token, either with one request per page
// (token_mode "page") or by listing /me/accounts (token_mode "accounts").
// A failed exchange aborts the run. Requests send the token in the
// Authorization header; tokens embedded in paging links are dropped.
//
// # Windows
//
// Edge requests are bounded by since/until. A window spans at most 90 days.
// When the API answers "reduce the amount of data", the window is halved and
// the request retried immediately, up to five attempts per request. A
// continuation request halves its page size instead.
//
// # Errors
//
// 401 and 403 responses during extraction skip the partition and the run
// continues with the next page. Any other error response aborts the run.
//
// # Rate Limiting
//
// The connector implements a dual-strategy rate limiting approach:
//
//  1. Proactive throttling: a token bucket limits requests to a configured
//     rate, five per second by default.
//
//  2. Reactive handling: the connector reads X-App-Usage, X-Page-Usage and
//     X-Business-Use-Case-Usage. At 95% usage, or on a throttling error
//     code, requests pause until access is regained.
package facebook
