// Package server implements the MCP (Model Context Protocol) server for
// fiducial marker detection and pose estimation.
//
// This package provides a JSON-RPC 2.0 server that exposes the detection and
// POSIT pipelines through the MCP protocol, so an MCP client can locate
// markers in an image, read their IDs and ask where each marker sits relative
// to the camera.
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
// Image Information:
//   - image_load: Load image and get metadata
//
// Marker Detection:
//   - marker_detect: IDs and oriented corners of every marker
//   - marker_pose: Both POSIT solutions for one marker, from an image or
//     from corners
//
// Debug Images:
//   - marker_threshold: The binary image contours are traced on
//   - marker_warp: A rectified, binarized quadrilateral
//   - marker_render: The canonical bitmap of an ID
//   - marker_annotate: The input with detected markers drawn on it
//
// # Image Caching
//
// The server maintains an in-memory cache of loaded images and their
// grayscale buffers. Images are cached by path and reused across tool calls.
// Each detection runs on a fresh detection.Detector, so concurrent calls do
// not share detector state.
//
// # Error Handling
//
// Tool errors are returned as JSON-RPC error responses with:
//   - code: -32602 for malformed or out-of-range arguments, -32000 for other
//     failures such as unreadable files or images without the requested
//     marker
//   - message: Human-readable error description
//   - data: The Go error string
//
// A request line that is not JSON is answered with code -32700 and a null
// ID. An image without markers is not an error for marker_detect; it returns
// an empty list.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := server.New(cfg)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
