// Package http provides the HTTP transport layer: the single dispatch
// endpoint that every service action is served through, plus the
// health, metrics, export, and event endpoints that sit beside it.
//
// The dispatch endpoint always answers HTTP 200 with the uniform
// response envelope; success and failure are carried in the envelope's
// return code. The side endpoints use conventional status codes and
// RFC 7807 problem details for errors.
package http
