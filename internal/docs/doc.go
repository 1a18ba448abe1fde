// Package docs extracts plain text from document formats that Drive stores
// as opaque bytes. Only PDF is supported.
package docs
