// Package server implements the MCP (Model Context Protocol) server for the
// coloring analysis tools.
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
// Portrait Analysis:
//   - coloring_analyze_portrait: Full pipeline on an image file
//   - coloring_extract_features: Skin/hair colors and labels, from a file or two hex colors
//   - coloring_predict_subtype: Rank subtypes for given labels
//
// Color Names:
//   - coloring_classify_eye: Name an eye color (hex or sampled point)
//   - coloring_classify_hair: Name a hair color
//
// Reference:
//   - coloring_list_subtypes: The subtype taxonomy, optionally by season
//   - coloring_vocabulary: Eye, hair and skin tone names by family
//   - coloring_parse_hex: Parse and describe a hex color
//
// Image Helpers:
//   - image_load: Load an image and report its metadata
//   - image_crop: Extract a region, optionally rescaled
//   - image_grid_overlay: Draw a coordinate grid to read off pixel positions
//   - image_region_preview: Outline the sampled regions on the portrait
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with code
// -32000, a short message and the Go error string as data. Logs go to
// stderr so they never interleave with protocol output.
package server
