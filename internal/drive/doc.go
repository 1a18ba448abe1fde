// Package drive reads file listings and file content from Google Drive.
//
// ReadContent dispatches on the file's MIME type:
//
//   - application/vnd.google-apps.document: exported as text/plain
//   - text/plain: downloaded as is
//   - application/pdf: downloaded and passed to a TextExtractor
//
// Any other type yields the content "Unsupported MIME type: <type>" rather
// than an error. Downloads are bounded by the client's maximum content size.
package drive
