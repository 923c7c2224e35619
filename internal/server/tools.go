package server

import "github.com/ironsheep/coloring-mcp/internal/taxonomy"

// Tool represents an MCP tool definition as returned by tools/list.
type Tool struct {
	// Name is the identifier passed to tools/call.
	Name string `json:"name"`

	// Description tells the client what the tool does and when to use it.
	Description string `json:"description"`

	// InputSchema is a JSON Schema object describing the tool's arguments.
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the portrait image file",
	}
}

func enumProperty[T ~string](values []T, description string) map[string]interface{} {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = string(v)
	}
	return map[string]interface{}{
		"type":        "string",
		"enum":        names,
		"description": description,
	}
}

// GetToolDefinitions returns all available tools.
//
// Tools are grouped as portrait analysis, color names, reference and image
// helpers. The label enums in coloring_predict_subtype come from the taxonomy
// package, so the schema always matches what the predictor accepts.
func GetToolDefinitions() []Tool {
	return []Tool{
		// Portrait Analysis
		{
			Name:        "coloring_analyze_portrait",
			Description: "Analyze a portrait: sample skin and hair, classify undertone, depth and contrast, and rank the 30 color subtypes. Returns the best match with up to 4 alternatives, the hair color name and a skin palette.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "coloring_extract_features",
			Description: "Extract skin and hair colors and the undertone, depth and contrast labels. Pass either a portrait path or explicit skin_hex and hair_hex colors.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"skin_hex": map[string]interface{}{
						"type":        "string",
						"description": "Skin color as hex (e.g. #e6c8b4). Used with hair_hex instead of path.",
					},
					"hair_hex": map[string]interface{}{
						"type":        "string",
						"description": "Hair color as hex (e.g. #3c281e). Used with skin_hex instead of path.",
					},
				},
			},
		},
		{
			Name:        "coloring_predict_subtype",
			Description: "Rank the color subtypes for a set of undertone, depth and contrast labels. Unknown labels are accepted and simply match nothing.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"undertone": enumProperty(taxonomy.Undertones, "Observed undertone"),
					"depth":     enumProperty(taxonomy.DepthScale, "Observed depth"),
					"contrast":  enumProperty(taxonomy.ContrastScale, "Observed contrast level"),
					"confidence": map[string]interface{}{
						"type":        "number",
						"description": "Confidence in the labels (0-1, default 1.0)",
						"default":     1.0,
					},
				},
				"required": []string{"undertone", "depth", "contrast"},
			},
		},

		// Color Names
		{
			Name:        "coloring_classify_eye",
			Description: "Name an eye color. Pass a hex color, or a portrait path with the pupil-adjacent iris point (x, y) to sample.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"hex":  map[string]interface{}{"type": "string", "description": "Eye color as hex"},
					"path": pathProperty(),
					"x":    map[string]interface{}{"type": "integer", "description": "Iris X coordinate (0-based)"},
					"y":    map[string]interface{}{"type": "integer", "description": "Iris Y coordinate (0-based)"},
					"radius": map[string]interface{}{
						"type":        "integer",
						"description": "Sampling radius in pixels around (x, y) (default 2)",
						"default":     2,
					},
				},
			},
		},
		{
			Name:        "coloring_classify_hair",
			Description: "Name a hair color from a hex value.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"hex": map[string]interface{}{"type": "string", "description": "Hair color as hex"},
				},
				"required": []string{"hex"},
			},
		},

		// Reference
		{
			Name:        "coloring_list_subtypes",
			Description: "List the subtype taxonomy with each subtype's season, undertone, depth and contrast.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"season": enumProperty(taxonomy.Seasons, "Optional season filter"),
				},
			},
		},
		{
			Name:        "coloring_vocabulary",
			Description: "List the eye, hair and skin tone color vocabularies grouped by family. With name, also report which family each vocabulary places it in.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Optional color name to look up (e.g. honey)",
					},
				},
			},
		},
		{
			Name:        "coloring_parse_hex",
			Description: "Parse a hex color and report its RGB, HSL, luminance and warmth.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"hex": map[string]interface{}{"type": "string", "description": "Color as 6 hex digits, optional leading #"},
				},
				"required": []string{"hex"},
			},
		},

		// Image Helpers
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The decoded image is cached for later calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_crop",
			Description: "Crop a rectangular region from an image and return it as base64 PNG, optionally rescaled. Useful for zooming in on the eyes before calling coloring_classify_eye.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x1":   map[string]interface{}{"type": "integer", "description": "Left edge X coordinate (0-based)"},
					"y1":   map[string]interface{}{"type": "integer", "description": "Top edge Y coordinate (0-based)"},
					"x2":   map[string]interface{}{"type": "integer", "description": "Right edge X coordinate (exclusive)"},
					"y2":   map[string]interface{}{"type": "integer", "description": "Bottom edge Y coordinate (exclusive)"},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor for the output (default 1.0)",
						"default":     1.0,
					},
				},
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},
		{
			Name:        "image_grid_overlay",
			Description: "Return the image as base64 PNG with a coordinate grid drawn over it, to read off pixel positions for image_crop and coloring_classify_eye.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"grid_spacing": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels between grid lines (default 50)",
						"default":     50,
					},
					"show_coordinates": map[string]interface{}{
						"type":        "boolean",
						"description": "Label each intersection with its x,y position (default true)",
						"default":     true,
					},
					"grid_color": map[string]interface{}{
						"type":        "string",
						"description": "Grid line color as hex (default #ff0000)",
						"default":     "#ff0000",
					},
					"opacity": map[string]interface{}{
						"type":        "number",
						"description": "Grid line opacity from 0 to 1 (default 0.5)",
						"default":     0.5,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_region_preview",
			Description: "Return the portrait as base64 PNG with the skin and hair sampling regions outlined and a swatch of each sampled color.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"max_size": map[string]interface{}{
						"type":        "integer",
						"description": "Longest side of the preview in pixels (default 512)",
						"default":     512,
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
