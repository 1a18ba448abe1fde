// Package gmail_tools registers the Gmail MCP tools: listing unread, read and
// spam messages, reading one message and marking a message read.
package gmail_tools
