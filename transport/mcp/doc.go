// Package mcp exposes the CodeShare server over the Model Context Protocol.
//
// The package is a thin proxy: every tool call is translated into a request
// against the REST API, so MCP clients and HTTP clients always observe the
// same state. Tools cover session management (create, get, list, delete);
// live editing stays on the WebSocket protocol.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
