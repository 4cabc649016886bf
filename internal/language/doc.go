// Package language resolves the UI language used for validation and error
// messages.
//
// The lead form ships English, Portuguese, and Spanish copy. Codes in any
// common form (ISO 639-1, ISO 639-2, English word, BCP 47 tag) normalize to
// one of those, Accept-Language headers are matched with x/text, and
// Localized tables fall back to English when a translation is missing.
package language
