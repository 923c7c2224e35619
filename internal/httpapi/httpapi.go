// Package httpapi serves the analysis pipeline over HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ironsheep/coloring-mcp/internal/analysis"
	"github.com/ironsheep/coloring-mcp/internal/catalog"
	"github.com/ironsheep/coloring-mcp/internal/classifier"
	"github.com/ironsheep/coloring-mcp/internal/taxonomy"
)

// DefaultMaxUploadSize bounds the image accepted by POST /analyze.
const DefaultMaxUploadSize = 10 << 20

// multipartOverhead is the slack allowed for multipart headers on top of
// the image itself.
const multipartOverhead = 64 << 10

// requestIDHeader carries the per-request id in both directions.
const requestIDHeader = "X-Request-ID"

var allowedContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// Analyzer runs the portrait pipeline on an encoded image.
type Analyzer interface {
	AnalyzeBytes(ctx context.Context, data []byte) (*analysis.Result, error)
}

// LabelStore reads and updates catalog labels for the review routes.
type LabelStore interface {
	FindLabel(ctx context.Context, faceImageID uuid.UUID) (*catalog.ColorLabel, error)
	UpdateLabel(ctx context.Context, faceImageID uuid.UUID, label *catalog.ColorLabel) error
}

// Handler holds the dependencies of the HTTP routes.
type Handler struct {
	analyzer      Analyzer
	predictor     *classifier.Predictor
	labels        LabelStore
	maxUploadSize int64
	logger        *zap.Logger
}

// NewHandler returns a Handler. maxUploadSize <= 0 means DefaultMaxUploadSize
// and a nil predictor uses the default taxonomy.
func NewHandler(analyzer Analyzer, predictor *classifier.Predictor, maxUploadSize int64, logger *zap.Logger) *Handler {
	if predictor == nil {
		predictor = classifier.New(nil)
	}
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		analyzer:      analyzer,
		predictor:     predictor,
		maxUploadSize: maxUploadSize,
		logger:        logger.Named("http"),
	}
}

// WithLabels enables the label review routes backed by store.
func (h *Handler) WithLabels(store LabelStore) *Handler {
	h.labels = store
	return h
}

// NewRouter builds a gin engine with request logging and the routes
// registered. authMiddleware may be nil.
func NewRouter(h *Handler, authMiddleware gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(h.logger))
	router.MaxMultipartMemory = h.maxUploadSize
	RegisterRoutes(router, h, authMiddleware)
	return router
}

// RegisterRoutes wires the HTTP handlers to the Gin router. When
// authMiddleware is non-nil it guards every route except /health and
// /subtypes. The /labels routes exist only when a LabelStore is set.
func RegisterRoutes(router *gin.Engine, h *Handler, authMiddleware gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/subtypes", h.listSubtypes)

	protected := router.Group("/")
	if authMiddleware != nil {
		protected.Use(authMiddleware)
	}
	protected.POST("/predict", h.predict)
	protected.POST("/analyze", h.analyze)

	if h.labels != nil {
		protected.GET("/labels/:image_id", h.getLabel)
		protected.PUT("/labels/:image_id/confirm", h.confirmLabel)
	}
}

// RequestLogger assigns a request id and logs each request with zap.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)
		c.Set("request_id", requestID)

		c.Next()

		logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func (h *Handler) listSubtypes(c *gin.Context) {
	table := h.predictor.Table()
	entries := table.All()
	if s := c.Query("season"); s != "" {
		season := taxonomy.Season(s)
		if !season.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown season"})
			return
		}
		entries = table.BySeason(season)
	}

	out := make([]gin.H, len(entries))
	for i, e := range entries {
		out[i] = gin.H{
			"code":         e.Code,
			"display_name": e.DisplayName(),
			"season":       e.Season,
			"undertone":    e.Undertone,
			"depth":        e.Depth,
			"contrast":     e.Contrast,
		}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "subtypes": out})
}

type predictRequest struct {
	Undertone  string   `json:"undertone" binding:"required"`
	Depth      string   `json:"depth" binding:"required"`
	Contrast   string   `json:"contrast" binding:"required"`
	Confidence *float64 `json:"confidence"`
}

func (h *Handler) predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "undertone, depth and contrast are required"})
		return
	}
	confidence := 1.0
	if req.Confidence != nil {
		confidence = *req.Confidence
	}
	c.JSON(http.StatusOK, h.predictor.Predict(classifier.Observation{
		Undertone:  taxonomy.Undertone(req.Undertone),
		Depth:      taxonomy.Depth(req.Depth),
		Contrast:   taxonomy.Contrast(req.Contrast),
		Confidence: confidence,
	}))
}

func (h *Handler) analyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+multipartOverhead)

	file, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	if file.Size > h.maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
		return
	}

	contentType := strings.ToLower(strings.TrimSpace(strings.Split(file.Header.Get("Content-Type"), ";")[0]))
	if !allowedContentTypes[contentType] {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported content type"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to open image"})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read image"})
		return
	}

	res, err := h.analyzer.AnalyzeBytes(c.Request.Context(), data)
	if err != nil {
		h.logger.Warn("analysis failed", zap.String("request_id", c.GetString("request_id")), zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) getLabel(c *gin.Context) {
	id, ok := parseImageID(c)
	if !ok {
		return
	}
	label, err := h.labels.FindLabel(c.Request.Context(), id)
	if err != nil {
		h.labelError(c, err)
		return
	}
	c.JSON(http.StatusOK, label)
}

type confirmRequest struct {
	Subtype string `json:"subtype" binding:"required"`
}

// confirmLabel stores a reviewer's subtype for an image and marks its label
// confirmed.
func (h *Handler) confirmLabel(c *gin.Context) {
	id, ok := parseImageID(c)
	if !ok {
		return
	}
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subtype is required"})
		return
	}
	subtype, err := h.predictor.Table().Lookup(req.Subtype)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	label, err := h.labels.FindLabel(ctx, id)
	if err != nil {
		h.labelError(c, err)
		return
	}
	label.Confirm(subtype)
	if err := h.labels.UpdateLabel(ctx, id, label); err != nil {
		h.labelError(c, err)
		return
	}
	c.JSON(http.StatusOK, label)
}

func parseImageID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("image_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) labelError(c *gin.Context, err error) {
	if errors.Is(err, catalog.ErrLabelNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "label not found"})
		return
	}
	h.logger.Error("label operation failed", zap.String("request_id", c.GetString("request_id")), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "label operation failed"})
}
