// Package drive_tools registers the Google Drive MCP tools.
//
//   - drive_list_recent_files: list file descriptors
//   - drive_read_file_content: read a file as text, exporting Docs and
//     extracting PDF text
//
// Files of any other MIME type are reported as unsupported in the content
// field rather than as an error.
package drive_tools
