// Package integrations provides the shared HTTP client for backend APIs.
//
// # Overview
//
// The knowledge-graph backend wraps every response in an envelope:
//
//	{"ret": 0, "msg": "...", "data": {...}}
//
// [Client.Do] performs exactly one request and classifies the outcome:
//
//   - network failure, non-2xx status or malformed JSON: TRANSPORT_ERROR,
//     logged as a warning
//   - ret != 0: APPLICATION_ERROR carrying the backend's msg
//   - otherwise the decoded [Envelope]
//
// There are no retries. A write that fails in transit may or may not have
// been applied; callers reload to find out.
//
// Endpoint-specific clients live in subpackages:
//
//   - [kg]: knowledge-graph entities, relationships, import/export
//
// # Observability
//
// Every request carries an X-Request-ID header and reports to
// [observability.HTTP] hooks.
package integrations
