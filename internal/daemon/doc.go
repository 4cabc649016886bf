// Package daemon coordinates the long-running leadlens process.
//
// It wires configuration, the lead table backend, the per-email lock backend,
// notifications and the HTTP server into a single lifecycle with flock-based
// locking to prevent two instances from sharing one data directory. Backend
// probes are registered as health checks so /api/health reflects the store
// and lock reachability.
//
// Keep orchestration here: request handling lives in internal/server and lead
// semantics in internal/leads.
package daemon
