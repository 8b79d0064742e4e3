// SPDX-License-Identifier: EPL-2.0

// Package fetch opens remote audio files as lazy byte streams.
//
// The Fetcher interface is what the download pool depends on; HTTP is the
// production implementation. It returns after the response headers and
// hands back the body unread, so decoding can start on the first bytes.
//
// Failures are typed:
//   - *NetworkError for DNS, dial, TLS and timeout failures, and for read
//     errors while the body streams
//   - *StatusError for a non-2xx response
//
// IsRetryable reports which of those are transient. The fetcher itself
// never retries.
package fetch
