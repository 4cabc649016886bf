// Package notifications pushes lead events to ntfy.
//
// The default implementation publishes to the topic configured in config.toml
// (or NTFY_TOPIC) and degrades to a no-op when no topic is set. Messages mask
// the local part of lead email addresses. Callers treat delivery failures as
// warnings; a failed push never fails a lead submission.
package notifications
