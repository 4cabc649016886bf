// Package server exposes the lead endpoint, public capture configuration and
// the built capture page over HTTP.
//
// Routes are registered on a gorilla/mux router. Every request gets a request
// id (honouring an incoming X-Request-ID) and a negotiated UI language, both
// carried on the request context so handlers, the lead service and the
// logging context handler see the same values. CORS and panic recovery come
// from gorilla/handlers.
package server
