// Package sheets implements rowstore.Table on top of a Google Sheets
// spreadsheet.
//
// Rows live in a single sheet (Sheet1 by default) covering columns A through
// D. Refs are 1-based sheet row numbers, so UpdateRow writes "Sheet1!A{ref}:D{ref}"
// and AppendRow uses the values.append API with INSERT_ROWS. Values are
// written RAW so timestamps and email addresses are stored exactly as sent.
//
// Authentication uses a service account, either from an email/private key
// pair or from a JSON credentials file.
package sheets
