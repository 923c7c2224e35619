package facebox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"github.com/ironsheep/coloring-mcp/internal/imaging"
)

// FacePrompt asks the model for a normalized face box as bare JSON.
const FacePrompt = `You are a face locator for portrait photos.

Return JSON only:
{"found": true, "confidence": 0.0, "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}}

RULES
- Coordinates are normalized to [0,1] relative to the image (NOT pixels).
- x,y is the top-left corner of the face (forehead to chin, ear to ear), w,h its size.
- Use the largest, most frontal face if there are several.
- If there is no face, return {"found": false, "confidence": 0.0, "box": {"x": 0, "y": 0, "w": 0, "h": 0}}.
- JSON only. No markdown, no code fences, no comments.`

// minConfidence is the lowest model confidence accepted as a face.
const minConfidence = 0.3

// ErrNoFace is returned by Detect when the model reports no usable face.
var ErrNoFace = errors.New("no face detected")

// ChatClient is the part of the Ollama API client Vision needs.
type ChatClient interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}

// NewOllamaClient builds an Ollama API client for baseURL. Any path on the
// URL is dropped.
func NewOllamaClient(baseURL string, timeout time.Duration) (*api.Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid ollama URL %q: scheme and host are required", baseURL)
	}
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}
	return api.NewClient(base, &http.Client{Timeout: timeout}), nil
}

// Vision locates faces with an Ollama vision model.
type Vision struct {
	client   ChatClient
	model    string
	fallback Locator
	logger   *zap.Logger
	maxSide  int
}

// NewVision returns a Vision locator. fallback is used whenever detection
// fails; nil means Fixed{}.
func NewVision(client ChatClient, model string, fallback Locator, logger *zap.Logger) *Vision {
	if fallback == nil {
		fallback = Fixed{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Vision{
		client:   client,
		model:    model,
		fallback: fallback,
		logger:   logger.Named("facebox"),
		maxSide:  768,
	}
}

// Locate implements Locator. Detection failures are logged and answered by
// the fallback locator; only context cancellation is returned as an error.
func (v *Vision) Locate(ctx context.Context, img image.Image) (Regions, error) {
	face, err := v.Detect(ctx, img)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Regions{}, ctxErr
		}
		v.logger.Warn("face detection failed, using fallback regions", zap.Error(err))
		return v.fallback.Locate(ctx, img)
	}
	return RegionsFromFace(face), nil
}

// Detect asks the model for the face box in img.
func (v *Vision) Detect(ctx context.Context, img image.Image) (Box, error) {
	// Large portraits are downscaled; normalized coordinates are unaffected.
	data, err := imaging.Encode(imaging.Thumbnail(img, v.maxSide), "jpeg")
	if err != nil {
		return Box{}, err
	}

	stream := false
	req := &api.ChatRequest{
		Model: v.model,
		Messages: []api.Message{{
			Role:    "user",
			Content: FacePrompt,
			Images:  []api.ImageData{api.ImageData(data)},
		}},
		Stream:  &stream,
		Options: map[string]any{"temperature": 0},
	}

	var content strings.Builder
	err = v.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return Box{}, fmt.Errorf("ollama chat error: %w", err)
	}
	if content.Len() == 0 {
		return Box{}, fmt.Errorf("empty response from ollama")
	}

	return parseFaceReply(content.String())
}

type faceReply struct {
	Found      bool    `json:"found"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

func parseFaceReply(raw string) (Box, error) {
	var reply faceReply
	if err := json.Unmarshal([]byte(sanitizeModelJSON(raw)), &reply); err != nil {
		return Box{}, fmt.Errorf("failed to parse model response: %w", err)
	}
	if !reply.Found || reply.Confidence < minConfidence || !reply.Box.Valid() {
		return Box{}, ErrNoFace
	}
	return reply.Box.clamped(), nil
}

var (
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment  = regexp.MustCompile(`(?m)//.*$`)
	reTrailing     = regexp.MustCompile(`,(\s*[}\]])`)
)

// sanitizeModelJSON strips code fences, comments and trailing commas and
// keeps only the outermost {...}.
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
