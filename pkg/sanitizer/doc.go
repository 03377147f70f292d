// Package sanitizer normalizes booking input before validation and storage.
//
// All functions are idempotent and never return errors: input that cannot be
// normalized is returned trimmed (or empty) and left for the validator to reject.
//
// Normalization includes:
//   - Phone numbers: E.164 (+[country][number])
//   - Names: collapse whitespace, trim
//   - Emails: trim, lowercase
//   - Identifier lists: trim, drop empties and duplicates
package sanitizer
