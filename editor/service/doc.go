// Package service defines the EditorService interface consumed by the HTTP
// and MCP surfaces, its data transfer types, and the store-backed
// implementation.
//
// The service composes the session store with the transport layer's live
// participant counts, so that REST reads and listings always reflect the
// current number of joined connections without the store having to know
// about connections at all.
package service
