// Package preflight provides readiness checks for the directories, files and
// backends leadlens depends on.
//
// The serve command runs RunAll before binding the listener and refuses to
// start when a required check fails. The config validate command prints the
// same results without failing on optional ones. Each check is gated by the
// configuration that needs it; an unused backend is never probed.
package preflight
