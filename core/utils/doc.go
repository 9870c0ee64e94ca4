// Package utils provides loose value conversion shared by the remote decoders
// and the HTTP layer, for inputs such as rate-limit headers, query parameters
// and JSON numbers whose concrete type varies between backends.
package utils
