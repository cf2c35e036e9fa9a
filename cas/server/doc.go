// Package server exposes a cas.Backend over HTTP so build engines on
// different machines can share one cache.
//
// Routes:
//
//	PUT    /v1/blobs              store the request body, respond with its digest
//	GET    /v1/blobs/:digest      fetch a blob
//	HEAD   /v1/blobs/:digest      check for a blob
//	DELETE /v1/blobs/:digest      remove a blob
//	GET    /v1/actions/:key       look up an action result
//	PUT    /v1/actions/:key       record an action result
//	GET    /v1/maps/:digest       describe a stored provider map
//	GET    /healthz               backend health
//	GET    /version               build information
//
// Errors are rendered as errors.ErrorResponse bodies.
package server
