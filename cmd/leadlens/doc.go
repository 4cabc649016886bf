// Package main hosts the leadlens CLI entrypoint and command graph.
//
// The Cobra command tree starts the HTTP server, talks to a running server
// through the lead API client, scaffolds configuration and runs the capture
// transcoder on local files. It centralizes configuration resolution so
// subcommands stay declarative; real work lives in the internal packages.
package main
