// Package classroom_tools registers the Google Classroom MCP tools.
package classroom_tools
