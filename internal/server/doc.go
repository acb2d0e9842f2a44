// Package server implements the MCP (Model Context Protocol) server that
// exposes playing-card detection as tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Card Operations:
//   - card_locate: Find the card outline, optionally with an annotated overlay
//   - card_rectify: Return the perspective-corrected, upright card
//   - card_sweep: Show the parameter schedule and how each set fares on a photo
//
// # Image Caching
//
// Decoded photos are cached by path for the lifetime of the process, so a
// photo examined with card_locate and then rectified is decoded once. A file
// rewritten on disk is decoded again on its next use.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with code
// CodeToolFailed and the Go error string as data. card_locate is the
// exception: a photo with no detectable card is a normal result with found
// set to false and one failure entry per parameter set. A line that is not
// JSON is answered with CodeParseError and a null id.
package server
