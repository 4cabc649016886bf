// Package services defines shared utilities consumed by the lead backend, the
// API client, and the capture orchestrator.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs, capture session IDs, and the
//     active UI language for logging and message selection.
//   - The error taxonomy (FORM_VALIDATION, API, CAMERA, SHEETS, NETWORK,
//     UNKNOWN) plus the Wrap helper that tags failures with a kind so they can
//     be mapped to localized user-facing messages.
//
// Use these helpers when wiring new handlers so operational behaviour (error
// classification, observability) stays uniform across the repository.
//
// Subpackages hold external integrations (Google Sheets).
package services
