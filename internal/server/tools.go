package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

type schema = map[string]interface{}

// object builds a JSON Schema object; required may be empty.
func object(props schema, required ...string) schema {
	s := schema{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func field(typ, desc string) schema {
	return schema{"type": typ, "description": desc}
}

func withDefault(s schema, v interface{}) schema {
	s["default"] = v
	return s
}

func pathProperty() schema {
	return field("string", "Absolute path to the image file")
}

// sweepProperty describes an optional replacement parameter schedule.
func sweepProperty() schema {
	count := func(desc string) schema {
		s := field("integer", desc)
		s["minimum"] = 0
		return s
	}
	s := field("array", "Optional parameter sets to try in order instead of the default sweep")
	s["items"] = object(schema{
		"blur":  count("Median blur kernel size; 0 skips the blur, otherwise odd"),
		"morph": count("Dilate/erode iterations; values below 2 skip the closing step"),
	}, "blur", "morph")
	return s
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its size, orientation and format. The decoded image is cached for the card tools.",
			InputSchema: object(schema{"path": pathProperty()}, "path"),
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: object(schema{"path": pathProperty()}, "path"),
		},
		{
			Name:        "card_locate",
			Description: "Find the outline of a playing card in a photo. Returns the four corners in image coordinates, the parameter set that found them and the candidates the selector examined. Optionally returns an annotated overlay as base64 PNG.",
			InputSchema: object(schema{
				"path":  pathProperty(),
				"sweep": sweepProperty(),
				"overlay": withDefault(field("boolean",
					"Return the image with contours (red), examined outlines (blue) and the accepted card (green) drawn on it"), false),
				"scale": withDefault(field("number", "Scale factor for the overlay image. Default 1.0"), 1.0),
			}, "path"),
		},
		{
			Name:        "card_rectify",
			Description: "Locate a playing card and return it perspective-corrected and upright as base64 PNG (1024 pixels wide, golden-ratio tall). Optionally writes the full-size card to disk.",
			InputSchema: object(schema{
				"path":   pathProperty(),
				"sweep":  sweepProperty(),
				"scale":  withDefault(field("number", "Scale factor for the returned image (e.g., 0.5 for half size). Default 0.25"), 0.25),
				"output": field("string", "Optional path to save the full-size card; the extension selects the format"),
			}, "path"),
		},
		{
			Name:        "card_sweep",
			Description: "Describe the preprocessing parameter sweep. With a path, every parameter set is tried on its own and the outcome of each is reported, which shows how robust the detection is for that photo.",
			InputSchema: object(schema{
				"path":  pathProperty(),
				"sweep": sweepProperty(),
			}),
		},
	}
}

func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return reply(req.ID, map[string]interface{}{"tools": GetToolDefinitions()})
}
