package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/ironsheep/aruco-mcp/internal/detection"
	"github.com/ironsheep/aruco-mcp/internal/imaging"
	"github.com/ironsheep/aruco-mcp/internal/posit"
)

// errInvalidArgs marks argument errors so they are reported as JSON-RPC
// -32602 instead of a tool failure.
var errInvalidArgs = errors.New("invalid arguments")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "marker_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Malformed or out-of-range arguments return code -32602; other tool
// failures return -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	out, err := s.executeTool(params.Name, params.Arguments)
	if errors.Is(err, errInvalidArgs) {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}
	var text string
	if err == nil {
		text, err = marshalResult(out)
	}
	if err != nil {
		if s.cfg.Debug() {
			log.Printf("Tool %s failed: %v", params.Name, err)
		}
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}

	return result(req, map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": text},
		},
	})
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images from cache as needed
//  4. Calls the appropriate imaging/detection/posit function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image Information
	case "image_load":
		return s.handleImageLoad(args)

	// Marker Detection
	case "marker_detect":
		return s.handleMarkerDetect(args)
	case "marker_pose":
		return s.handleMarkerPose(args)

	// Debug Images
	case "marker_threshold":
		return s.handleMarkerThreshold(args)
	case "marker_warp":
		return s.handleMarkerWarp(args)
	case "marker_render":
		return s.handleMarkerRender(args)
	case "marker_annotate":
		return s.handleMarkerAnnotate(args)

	default:
		return nil, fmt.Errorf("%w: unknown tool: %s", errInvalidArgs, name)
	}
}

// errorResponse creates a JSON-RPC error response. An empty data is
// omitted.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{JSONRPC: "2.0", ID: id, Error: e}
}

// marshalResult renders a tool result as indented JSON text.
func marshalResult(v interface{}) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(b), nil
}

// unmarshalArgs decodes tool arguments, tagging failures as argument errors.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return nil
}

// detect runs a fresh detector over the cached grayscale image at path.
func (s *Server) detect(path string) (*imaging.Gray, []detection.Marker, error) {
	gray, err := s.cache.Gray(path)
	if err != nil {
		return nil, nil, err
	}

	cfg := detection.DefaultConfig()
	cfg.Workers = s.cfg.Workers
	d, err := detection.NewDetector(cfg)
	if err != nil {
		return nil, nil, err
	}

	markers, err := d.DetectGray(gray)
	if err != nil {
		return nil, nil, fmt.Errorf("detection failed: %w", err)
	}
	if s.cfg.Debug() {
		log.Printf("Detected %d markers in %s (%d candidates)", len(markers), path, len(d.Candidates()))
	}
	return gray, markers, nil
}

// === Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Marker Detection Handlers ===

// MarkerDetectResult is the result of marker_detect.
type MarkerDetectResult struct {
	Width   int                `json:"width"`
	Height  int                `json:"height"`
	Count   int                `json:"count"`
	Markers []detection.Marker `json:"markers"`
}

func (s *Server) handleMarkerDetect(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	gray, markers, err := s.detect(a.Path)
	if err != nil {
		return nil, err
	}
	return &MarkerDetectResult{
		Width:   gray.Width,
		Height:  gray.Height,
		Count:   len(markers),
		Markers: markers,
	}, nil
}

type markerPoseArgs struct {
	Path        string          `json:"path"`
	MarkerID    *int            `json:"marker_id"`
	Corners     []imaging.Point `json:"corners"`
	ImageWidth  int             `json:"image_width"`
	ImageHeight int             `json:"image_height"`
	ModelSize   float64         `json:"model_size"`
	FocalLength float64         `json:"focal_length"`
}

// HypothesisResult is one pose solution with its Euler angles in degrees.
type HypothesisResult struct {
	posit.Hypothesis
	Valid    bool    `json:"valid"`
	YawDeg   float64 `json:"yaw_deg"`
	PitchDeg float64 `json:"pitch_deg"`
	RollDeg  float64 `json:"roll_deg"`
	Distance float64 `json:"distance"`
}

// MarkerPoseResult is the result of marker_pose.
type MarkerPoseResult struct {
	MarkerID    *int             `json:"marker_id,omitempty"`
	Corners     [4]imaging.Point `json:"corners"`
	ModelSize   float64          `json:"model_size"`
	FocalLength float64          `json:"focal_length"`
	Best        HypothesisResult `json:"best"`
	Alternative HypothesisResult `json:"alternative"`
}

func newHypothesisResult(h posit.Hypothesis) HypothesisResult {
	yaw, pitch, roll := h.Angles()
	t := h.Translation
	return HypothesisResult{
		Hypothesis: h,
		Valid:      h.Error.Valid(),
		YawDeg:     yaw * 180 / math.Pi,
		PitchDeg:   pitch * 180 / math.Pi,
		RollDeg:    roll * 180 / math.Pi,
		Distance:   math.Sqrt(t[0]*t[0] + t[1]*t[1] + t[2]*t[2]),
	}
}

func (s *Server) handleMarkerPose(args json.RawMessage) (interface{}, error) {
	var a markerPoseArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.ModelSize == 0 {
		a.ModelSize = s.cfg.ModelSize
	}

	var (
		corners       [4]imaging.Point
		width, height int
		markerID      *int
	)
	switch {
	case len(a.Corners) > 0:
		if len(a.Corners) != 4 {
			return nil, fmt.Errorf("%w: need exactly 4 corners, got %d", errInvalidArgs, len(a.Corners))
		}
		if a.ImageWidth <= 0 || a.ImageHeight <= 0 {
			return nil, fmt.Errorf("%w: image_width and image_height are required with corners", errInvalidArgs)
		}
		copy(corners[:], a.Corners)
		width, height = a.ImageWidth, a.ImageHeight
		markerID = a.MarkerID

	case a.Path != "":
		gray, markers, err := s.detect(a.Path)
		if err != nil {
			return nil, err
		}
		m, err := selectMarker(markers, a.MarkerID)
		if err != nil {
			return nil, err
		}
		corners = m.Corners
		width, height = gray.Width, gray.Height
		markerID = &m.ID

	default:
		return nil, fmt.Errorf("%w: either path or corners is required", errInvalidArgs)
	}

	focal := a.FocalLength
	if focal == 0 {
		focal = s.cfg.FocalLength
	}
	if focal == 0 {
		focal = float64(width)
	}

	p, err := posit.New(a.ModelSize, focal)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	pose := p.Pose(posit.CenterCorners(corners, width, height))

	return &MarkerPoseResult{
		MarkerID:    markerID,
		Corners:     corners,
		ModelSize:   a.ModelSize,
		FocalLength: focal,
		Best:        newHypothesisResult(pose.Best),
		Alternative: newHypothesisResult(pose.Alternative),
	}, nil
}

// selectMarker picks the marker with the requested ID, or the first one.
func selectMarker(markers []detection.Marker, id *int) (detection.Marker, error) {
	if len(markers) == 0 {
		return detection.Marker{}, errors.New("no marker found in image")
	}
	if id == nil {
		return markers[0], nil
	}
	for _, m := range markers {
		if m.ID == *id {
			return m, nil
		}
	}
	return detection.Marker{}, fmt.Errorf("marker %d not found in image", *id)
}

// === Debug Image Handlers ===

type markerThresholdArgs struct {
	Path       string `json:"path"`
	KernelSize *int   `json:"kernel_size"`
	Delta      *int   `json:"delta"`
}

// ThresholdResult is the result of marker_threshold.
type ThresholdResult struct {
	*imaging.EncodedImage
	KernelSize int `json:"kernel_size"`
	Delta      int `json:"delta"`

	// ForegroundPixels is the number of white pixels.
	ForegroundPixels int `json:"foreground_pixels"`
}

func (s *Server) handleMarkerThreshold(args json.RawMessage) (interface{}, error) {
	var a markerThresholdArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	def := detection.DefaultConfig()
	kernel, delta := def.ThresholdKernel, def.ThresholdDelta
	if a.KernelSize != nil {
		kernel = *a.KernelSize
	}
	if a.Delta != nil {
		delta = *a.Delta
	}

	gray, err := s.cache.Gray(a.Path)
	if err != nil {
		return nil, err
	}
	bin, err := imaging.AdaptiveThreshold(gray, kernel, delta)
	if errors.Is(err, imaging.ErrKernelSize) {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	if err != nil {
		return nil, err
	}

	enc, err := imaging.EncodePNG(bin.Image())
	if err != nil {
		return nil, err
	}
	return &ThresholdResult{
		EncodedImage:     enc,
		KernelSize:       kernel,
		Delta:            delta,
		ForegroundPixels: imaging.CountNonZero(bin, bin.Bounds()),
	}, nil
}

// maxWarpSize bounds the marker_warp output edge.
const maxWarpSize = 1024

type markerWarpArgs struct {
	Path    string          `json:"path"`
	Corners []imaging.Point `json:"corners"`
	Size    int             `json:"size"`
}

// WarpResult is the result of marker_warp.
type WarpResult struct {
	*imaging.EncodedImage

	// Threshold is the Otsu level used to binarize the rectified image.
	Threshold int `json:"threshold"`
}

func (s *Server) handleMarkerWarp(args json.RawMessage) (interface{}, error) {
	var a markerWarpArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Corners) != 4 {
		return nil, fmt.Errorf("%w: need exactly 4 corners, got %d", errInvalidArgs, len(a.Corners))
	}
	if a.Size == 0 {
		a.Size = detection.DefaultConfig().WarpSize
	}
	if a.Size > maxWarpSize {
		return nil, fmt.Errorf("%w: size %d exceeds %d", errInvalidArgs, a.Size, maxWarpSize)
	}

	gray, err := s.cache.Gray(a.Path)
	if err != nil {
		return nil, err
	}

	var quad [4]imaging.Point
	copy(quad[:], a.Corners)
	warped, err := imaging.Warp(gray, quad, a.Size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}

	t := imaging.Otsu(warped)
	enc, err := imaging.EncodePNG(imaging.Threshold(warped, t).Image())
	if err != nil {
		return nil, err
	}
	return &WarpResult{EncodedImage: enc, Threshold: t}, nil
}

type markerRenderArgs struct {
	ID       *int `json:"id"`
	CellSize int  `json:"cell_size"`
}

func (s *Server) handleMarkerRender(args json.RawMessage) (interface{}, error) {
	var a markerRenderArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.ID == nil {
		return nil, fmt.Errorf("%w: id is required", errInvalidArgs)
	}
	if a.CellSize == 0 {
		a.CellSize = 10
	}

	img, err := detection.Render(*a.ID, a.CellSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return imaging.EncodePNG(img)
}

// AnnotateResult is the result of marker_annotate.
type AnnotateResult struct {
	*imaging.EncodedImage
	Markers []detection.Marker `json:"markers"`
}

func (s *Server) handleMarkerAnnotate(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	_, markers, err := s.detect(a.Path)
	if err != nil {
		return nil, err
	}

	enc, err := imaging.EncodePNG(detection.Annotate(img, markers))
	if err != nil {
		return nil, err
	}
	return &AnnotateResult{EncodedImage: enc, Markers: markers}, nil
}
