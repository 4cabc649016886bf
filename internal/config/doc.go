// Package config loads, normalizes, and validates leadlens configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads .env files, and honours the environment
// variables the hosted deployment relies on (SPREADSHEET_ID, PORT,
// GOOGLE_SERVICE_ACCOUNT_EMAIL, GOOGLE_PRIVATE_KEY, LENS_API_TOKEN, ...). The
// Config type centralizes every knob the server and CLI need so the store
// backend, the lens wiring, and the API client are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a resolved store backend, and clear validation errors.
package config
