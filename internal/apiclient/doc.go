// Package apiclient talks to the leadlens backend from Go callers such as the
// CLI.
//
// Every call goes through a bounded, strictly sequential retry: up to
// MaxAttempts requests, sleeping RetryDelay multiplied by the attempt number
// between them. A request id is generated per logical call and repeated on each
// retry so server logs can group them.
package apiclient
