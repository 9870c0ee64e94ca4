// Package middleware groups the HTTP middleware of the fiber application.
//
//   - rayid: assigns every request a ray id, stored in the fiber locals and
//     echoed in the X-Ray-ID response header.
//   - auth: checks the API key on every non-public route.
//
// Metrics middleware lives in core/metrics next to its collectors.
package middleware
