// Package tools defines the MCP tools exposed by the server and their
// handlers.
//
// Every handler resolves its arguments, issues at most one request through
// an intervals.API and returns either the formatted payload or a tool error
// whose text is the failure record as JSON:
//
//	{"error": true, "status_code": 404, "message": "..."}
//
// Invalid arguments are reported the same way, with a null status_code,
// before any request is made.
package tools
