// Package gmail wraps the Gmail API for listing, reading and triaging mail.
//
// Every list operation honours a result limit and never returns more than
// limit records. Message summaries fall back to "(No Subject)" and "Unknown"
// when the Subject or From header is absent.
package gmail
