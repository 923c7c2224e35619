package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/ironsheep/coloring-mcp/internal/classifier"
	"github.com/ironsheep/coloring-mcp/internal/colormath"
	"github.com/ironsheep/coloring-mcp/internal/facebox"
	"github.com/ironsheep/coloring-mcp/internal/features"
	"github.com/ironsheep/coloring-mcp/internal/imaging"
	"github.com/ironsheep/coloring-mcp/internal/naming"
	"github.com/ironsheep/coloring-mcp/internal/taxonomy"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "coloring_analyze_portrait").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

var errPathRequired = errors.New("path is required")

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", zap.String("tool", params.Name), zap.Error(err))
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.logger.Debug("tool executed", zap.String("tool", params.Name), zap.Duration("elapsed", time.Since(start)))

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Portrait Analysis
	case "coloring_analyze_portrait":
		return s.handleAnalyzePortrait(ctx, args)
	case "coloring_extract_features":
		return s.handleExtractFeatures(ctx, args)
	case "coloring_predict_subtype":
		return s.handlePredictSubtype(args)

	// Color Names
	case "coloring_classify_eye":
		return s.handleClassifyEye(args)
	case "coloring_classify_hair":
		return s.handleClassifyHair(args)

	// Reference
	case "coloring_list_subtypes":
		return s.handleListSubtypes(args)
	case "coloring_vocabulary":
		return s.handleVocabulary(args)
	case "coloring_parse_hex":
		return s.handleParseHex(args)

	// Image Helpers
	case "image_load":
		return s.handleImageLoad(args)
	case "image_crop":
		return s.handleImageCrop(args)
	case "image_grid_overlay":
		return s.handleGridOverlay(args)
	case "image_region_preview":
		return s.handleRegionPreview(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Portrait Analysis Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleAnalyzePortrait(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errPathRequired
	}
	return s.analyzer.AnalyzeFile(ctx, a.Path)
}

type extractFeaturesArgs struct {
	Path    string `json:"path"`
	SkinHex string `json:"skin_hex"`
	HairHex string `json:"hair_hex"`
}

type extractFeaturesResult struct {
	Features *features.FeatureSet `json:"features"`
	Regions  *facebox.Regions     `json:"regions,omitempty"`
}

func (s *Server) handleExtractFeatures(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a extractFeaturesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	if a.Path == "" {
		if a.SkinHex == "" || a.HairHex == "" {
			return nil, errors.New("either path or both skin_hex and hair_hex are required")
		}
		skin, err := colormath.ParseHex(a.SkinHex)
		if err != nil {
			return nil, fmt.Errorf("skin_hex: %w", err)
		}
		hair, err := colormath.ParseHex(a.HairHex)
		if err != nil {
			return nil, fmt.Errorf("hair_hex: %w", err)
		}
		return extractFeaturesResult{Features: features.Features(skin, hair)}, nil
	}

	img, err := s.images.Load(a.Path)
	if err != nil {
		return nil, err
	}
	res, err := s.analyzer.AnalyzeImage(ctx, img)
	if err != nil {
		return nil, err
	}
	return extractFeaturesResult{Features: res.Features, Regions: &res.Regions}, nil
}

type predictSubtypeArgs struct {
	Undertone  string   `json:"undertone"`
	Depth      string   `json:"depth"`
	Contrast   string   `json:"contrast"`
	Confidence *float64 `json:"confidence"`
}

func (s *Server) handlePredictSubtype(args json.RawMessage) (interface{}, error) {
	var a predictSubtypeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	confidence := 1.0
	if a.Confidence != nil {
		confidence = *a.Confidence
	}
	return s.predictor.Predict(classifier.Observation{
		Undertone:  taxonomy.Undertone(a.Undertone),
		Depth:      taxonomy.Depth(a.Depth),
		Contrast:   taxonomy.Contrast(a.Contrast),
		Confidence: confidence,
	}), nil
}

// === Color Name Handlers ===

// NameResult is a named color, returned by coloring_classify_eye and
// coloring_classify_hair. Family is empty when the vocabulary does not group
// the name.
type NameResult struct {
	Name   string              `json:"name"`
	Family string              `json:"family,omitempty"`
	Color  imaging.ColorResult `json:"color"`
}

type classifyEyeArgs struct {
	Hex    string `json:"hex"`
	Path   string `json:"path"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Radius *int   `json:"radius"`
}

func (s *Server) handleClassifyEye(args json.RawMessage) (interface{}, error) {
	var a classifyEyeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var sample colormath.Sample
	switch {
	case a.Hex != "":
		var err error
		if sample, err = colormath.ParseHex(a.Hex); err != nil {
			return nil, err
		}
	case a.Path != "":
		img, err := s.images.Load(a.Path)
		if err != nil {
			return nil, err
		}
		radius := 2
		if a.Radius != nil {
			radius = *a.Radius
		}
		b := img.Bounds()
		if sample, err = imaging.SamplePoint(img, b.Min.X+a.X, b.Min.Y+a.Y, radius); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("either hex or path with x and y is required")
	}

	name := naming.ClassifyEye(sample)
	family, _ := naming.EyeFamily(name)
	return NameResult{Name: name, Family: family, Color: imaging.NewColorResult(sample)}, nil
}

type hexArgs struct {
	Hex string `json:"hex"`
}

func (s *Server) handleClassifyHair(args json.RawMessage) (interface{}, error) {
	var a hexArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sample, err := colormath.ParseHex(a.Hex)
	if err != nil {
		return nil, err
	}
	name := naming.ClassifyHair(sample)
	family, _ := naming.HairFamily(name)
	return NameResult{Name: name, Family: family, Color: imaging.NewColorResult(sample)}, nil
}

// === Reference Handlers ===

// SubtypeInfo describes one taxonomy entry with its human-readable name
// (e.g., "Light Spring" for light_spring).
type SubtypeInfo struct {
	taxonomy.Subtype
	DisplayName string `json:"display_name"`
}

type listSubtypesArgs struct {
	Season string `json:"season"`
}

func (s *Server) handleListSubtypes(args json.RawMessage) (interface{}, error) {
	var a listSubtypesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	table := s.predictor.Table()
	entries := table.All()
	if a.Season != "" {
		season := taxonomy.Season(a.Season)
		if !season.Valid() {
			return nil, fmt.Errorf("unknown season %q", a.Season)
		}
		entries = table.BySeason(season)
	}

	out := make([]SubtypeInfo, len(entries))
	for i, e := range entries {
		out[i] = SubtypeInfo{Subtype: e, DisplayName: e.DisplayName()}
	}
	return map[string]interface{}{
		"count":    len(out),
		"subtypes": out,
	}, nil
}

// VocabularyResult lists the color vocabularies and, when a name was given,
// the family each one assigns it.
type VocabularyResult struct {
	EyeFamilies  []naming.Family `json:"eye_families"`
	HairFamilies []naming.Family `json:"hair_families"`
	SkinTones    []naming.Family `json:"skin_tones"`
	Lookup       *NameLookup     `json:"lookup,omitempty"`
}

// NameLookup places one color name in each vocabulary. Empty fields mean the
// vocabulary does not contain the name.
type NameLookup struct {
	Name           string `json:"name"`
	EyeFamily      string `json:"eye_family,omitempty"`
	HairFamily     string `json:"hair_family,omitempty"`
	SkinToneGroup  string `json:"skin_tone_group,omitempty"`
	InVocabularies bool   `json:"in_vocabularies"`
}

type vocabularyArgs struct {
	Name string `json:"name"`
}

func (s *Server) handleVocabulary(args json.RawMessage) (interface{}, error) {
	var a vocabularyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	res := VocabularyResult{
		EyeFamilies:  naming.EyeFamilies,
		HairFamilies: naming.HairFamilies,
		SkinTones:    naming.SkinTones,
	}
	if a.Name != "" {
		eye, inEye := naming.EyeFamily(a.Name)
		hair, inHair := naming.HairFamily(a.Name)
		skin, inSkin := naming.SkinToneGroup(a.Name)
		res.Lookup = &NameLookup{
			Name:           a.Name,
			EyeFamily:      eye,
			HairFamily:     hair,
			SkinToneGroup:  skin,
			InVocabularies: inEye || inHair || inSkin,
		}
	}
	return res, nil
}

func (s *Server) handleParseHex(args json.RawMessage) (interface{}, error) {
	var a hexArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sample, err := colormath.ParseHex(a.Hex)
	if err != nil {
		return nil, err
	}
	return imaging.NewColorResult(sample), nil
}

// === Image Helper Handlers ===

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errPathRequired
	}
	return imaging.LoadImageInfo(s.images, a.Path)
}

type cropArgs struct {
	Path  string   `json:"path"`
	X1    int      `json:"x1"`
	Y1    int      `json:"y1"`
	X2    int      `json:"x2"`
	Y2    int      `json:"y2"`
	Scale *float64 `json:"scale"`
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var a cropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errPathRequired
	}
	scale := 1.0
	if a.Scale != nil {
		if *a.Scale <= 0 {
			return nil, fmt.Errorf("scale must be positive, got %v", *a.Scale)
		}
		scale = *a.Scale
	}

	img, err := s.images.Load(a.Path)
	if err != nil {
		return nil, err
	}
	// Tool coordinates are 0-based from the top-left corner.
	rect := image.Rect(a.X1, a.Y1, a.X2, a.Y2).Add(img.Bounds().Min)
	return imaging.Crop(img, rect, scale)
}

type gridOverlayArgs struct {
	Path            string   `json:"path"`
	GridSpacing     int      `json:"grid_spacing"`
	ShowCoordinates *bool    `json:"show_coordinates"`
	GridColor       string   `json:"grid_color"`
	Opacity         *float64 `json:"opacity"`
}

var defaultGridColor = colormath.RGB(255, 0, 0)

func (s *Server) handleGridOverlay(args json.RawMessage) (interface{}, error) {
	var a gridOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errPathRequired
	}
	if a.GridSpacing <= 0 {
		a.GridSpacing = imaging.DefaultGridSpacing
	}
	showCoordinates := true
	if a.ShowCoordinates != nil {
		showCoordinates = *a.ShowCoordinates
	}
	line := defaultGridColor
	if a.GridColor != "" {
		var err error
		if line, err = colormath.ParseHex(a.GridColor); err != nil {
			return nil, fmt.Errorf("grid_color: %w", err)
		}
	}
	opacity := 0.5
	if a.Opacity != nil {
		if *a.Opacity < 0 || *a.Opacity > 1 {
			return nil, fmt.Errorf("opacity must be between 0 and 1, got %v", *a.Opacity)
		}
		opacity = *a.Opacity
	}

	img, err := s.images.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.GridOverlay(img, a.GridSpacing, showCoordinates, line, uint8(math.Round(opacity*255)))
}

type regionPreviewArgs struct {
	Path    string `json:"path"`
	MaxSize int    `json:"max_size"`
}

// RegionPreviewResult is the annotated preview plus what was sampled.
//
// Regions are in preview coordinates, not those of the original file, since
// the analysis runs on the downscaled preview.
type RegionPreviewResult struct {
	*imaging.CropResult
	Regions facebox.Regions `json:"regions"`
	SkinHex string          `json:"skin_hex"`
	HairHex string          `json:"hair_hex"`
}

var (
	skinOutline = colormath.RGB(0, 255, 0)
	hairOutline = colormath.RGB(255, 0, 255)
)

func (s *Server) handleRegionPreview(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a regionPreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errPathRequired
	}
	if a.MaxSize <= 0 {
		a.MaxSize = 512
	}

	img, err := s.images.Load(a.Path)
	if err != nil {
		return nil, err
	}
	preview := imaging.Thumbnail(img, a.MaxSize)

	res, err := s.analyzer.AnalyzeImage(ctx, preview)
	if err != nil {
		return nil, err
	}

	fs := res.Features
	overlay, err := imaging.RegionOverlay(preview, []imaging.OverlayRegion{
		{Name: "skin", Rect: fs.Skin.Rect, Outline: skinOutline, Fill: fs.Skin.Sample},
		{Name: "hair", Rect: fs.Hair.Rect, Outline: hairOutline, Fill: fs.Hair.Sample},
	})
	if err != nil {
		return nil, err
	}
	return RegionPreviewResult{
		CropResult: overlay,
		Regions:    res.Regions,
		SkinHex:    fs.SkinHex,
		HairHex:    fs.HairHex,
	}, nil
}
