package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperty is the schema of the image path argument shared by most tools.
var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

// cornersProperty is the schema of a clockwise list of four corner points.
var cornersProperty = map[string]interface{}{
	"type": "array",
	"items": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "number"},
			"y": map[string]interface{}{"type": "number"},
		},
		"required": []string{"x", "y"},
	},
	"minItems":    4,
	"maxItems":    4,
	"description": "Four marker corners in pixel coordinates, clockwise from the marker's top-left corner (as returned by marker_detect)",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The decoded image is cached for subsequent marker operations on the same path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Marker Detection
		{
			Name:        "marker_detect",
			Description: "Detect square fiducial markers (7x7 grid, IDs 0-1023) in an image. Returns each marker's ID and its four corners, clockwise from the marker's own top-left corner.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "marker_pose",
			Description: "Estimate the 3D pose of a marker relative to the camera. Either give an image path (the marker is detected first) or the four corners with the image size. Returns the two mirror pose solutions, best first, with rotation, translation, Euler angles in degrees and reprojection error.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"marker_id": map[string]interface{}{
						"type":        "integer",
						"description": "Marker to use when the image contains several. Default: the first detected marker",
					},
					"corners": cornersProperty,
					"image_width": map[string]interface{}{
						"type":        "integer",
						"description": "Image width in pixels (required with corners)",
					},
					"image_height": map[string]interface{}{
						"type":        "integer",
						"description": "Image height in pixels (required with corners)",
					},
					"model_size": map[string]interface{}{
						"type":        "number",
						"description": "Physical marker edge length; the translation is reported in the same unit. Default from server configuration",
					},
					"focal_length": map[string]interface{}{
						"type":        "number",
						"description": "Camera focal length in pixels. Default: the image width",
					},
				},
			},
		},

		// Debug Images
		{
			Name:        "marker_threshold",
			Description: "Return the adaptive threshold image the detector works on, as base64 PNG. Foreground (dark relative to its neighbourhood) is white.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"kernel_size": map[string]interface{}{
						"type":        "integer",
						"description": "Box blur radius, 0-15 (default 2)",
						"default":     2,
					},
					"delta": map[string]interface{}{
						"type":        "integer",
						"description": "How much darker than the local mean a pixel must be to become foreground (default 7)",
						"default":     7,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "marker_warp",
			Description: "Rectify a quadrilateral of the image to a square and binarize it with Otsu's threshold, showing the cell grid the decoder reads. Returns base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty,
					"corners": cornersProperty,
					"size": map[string]interface{}{
						"type":        "integer",
						"description": "Edge length of the output square in pixels, 2-1024 (default 49)",
						"default":     49,
						"minimum":     2,
						"maximum":     maxWarpSize,
					},
				},
				"required": []string{"path", "corners"},
			},
		},
		{
			Name:        "marker_render",
			Description: "Render the canonical bitmap of a marker ID as base64 PNG, for printing or testing.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "integer",
						"description": "Marker ID, 0-1023",
					},
					"cell_size": map[string]interface{}{
						"type":        "integer",
						"description": "Edge length of one grid cell in pixels (default 10)",
						"default":     10,
					},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "marker_annotate",
			Description: "Detect markers and return the image with each marker outlined, its first corner marked and its ID labelled, as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return result(req, map[string]interface{}{"tools": GetToolDefinitions()})
}
