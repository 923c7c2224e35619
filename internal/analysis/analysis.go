// Package analysis runs the full portrait pipeline: locate the sampling
// regions, extract features, predict the subtype and name the hair color.
// Results for file and upload input are cached by content hash.
package analysis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ironsheep/coloring-mcp/internal/cache"
	"github.com/ironsheep/coloring-mcp/internal/classifier"
	"github.com/ironsheep/coloring-mcp/internal/facebox"
	"github.com/ironsheep/coloring-mcp/internal/features"
	"github.com/ironsheep/coloring-mcp/internal/imaging"
	"github.com/ironsheep/coloring-mcp/internal/logging"
	"github.com/ironsheep/coloring-mcp/internal/naming"
	"github.com/ironsheep/coloring-mcp/internal/taxonomy"
)

// cacheNamespace prefixes every cache key written by the service.
const cacheNamespace = "coloring"

// paletteSize is the number of skin palette entries reported.
const paletteSize = 5

// Result is the outcome of analyzing one portrait.
type Result struct {
	Width       int                    `json:"width"`
	Height      int                    `json:"height"`
	Regions     facebox.Regions        `json:"regions"`
	Features    *features.FeatureSet   `json:"features"`
	Prediction  classifier.Result      `json:"prediction"`
	Subtype     taxonomy.Subtype       `json:"subtype"`
	HairColor   string                 `json:"hair_color"`
	HairFamily  string                 `json:"hair_family,omitempty"`
	SkinPalette []imaging.PaletteEntry `json:"skin_palette,omitempty"`
	Cached      bool                   `json:"cached"`
}

// Options configures a Service. Zero fields get defaults.
type Options struct {
	Locator   facebox.Locator       // default facebox.Fixed{}
	Predictor *classifier.Predictor // default taxonomy
	Cache     cache.Store           // nil disables result caching
	CacheTTL  time.Duration
	Logger    *zap.Logger
}

// Service analyzes portraits. It is safe for concurrent use.
type Service struct {
	locator   facebox.Locator
	predictor *classifier.Predictor
	cache     cache.Store
	ttl       time.Duration
	logger    *zap.Logger
}

// New returns a Service.
func New(opts Options) *Service {
	s := &Service{
		locator:   opts.Locator,
		predictor: opts.Predictor,
		cache:     opts.Cache,
		ttl:       opts.CacheTTL,
		logger:    opts.Logger,
	}
	if s.locator == nil {
		s.locator = facebox.Fixed{}
	}
	if s.predictor == nil {
		s.predictor = classifier.New(nil)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("analysis")
	return s
}

// CacheKey returns the cache key for an encoded image.
func CacheKey(data []byte) string {
	sum := sha1.Sum(data)
	return cache.Key(cacheNamespace, "analysis", hex.EncodeToString(sum[:]))
}

// AnalyzeFile reads and analyzes the image at path.
func (s *Service) AnalyzeFile(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, logging.NewOperationError("analysis.file", "", fmt.Errorf("failed to read image: %w", err))
	}
	return s.AnalyzeBytes(ctx, data)
}

// AnalyzeBytes analyzes an encoded image, answering from the cache when the
// same bytes were analyzed before.
func (s *Service) AnalyzeBytes(ctx context.Context, data []byte) (*Result, error) {
	requestID := uuid.NewString()
	log := logging.WithOperation(s.logger, "analysis.bytes", requestID)
	key := CacheKey(data)

	if cached, ok := s.lookup(ctx, key, log); ok {
		return cached, nil
	}

	img, _, err := imaging.DecodeBytes(data)
	if err != nil {
		return nil, logging.NewOperationError("analysis.bytes", requestID, err)
	}

	res, err := s.analyze(ctx, img, log)
	if err != nil {
		return nil, logging.NewOperationError("analysis.bytes", requestID, err)
	}

	s.store(ctx, key, res, log)
	return res, nil
}

// AnalyzeImage analyzes a decoded image. Results are not cached.
func (s *Service) AnalyzeImage(ctx context.Context, img image.Image) (*Result, error) {
	requestID := uuid.NewString()
	log := logging.WithOperation(s.logger, "analysis.image", requestID)
	res, err := s.analyze(ctx, img, log)
	if err != nil {
		return nil, logging.NewOperationError("analysis.image", requestID, err)
	}
	return res, nil
}

func (s *Service) analyze(ctx context.Context, img image.Image, log *zap.Logger) (*Result, error) {
	regions, err := s.locator.Locate(ctx, img)
	if err != nil {
		return nil, err
	}

	fs, err := regions.Extractor().ExtractImage(img)
	if errors.Is(err, features.ErrEmptyRegion) && regions.Source != "fixed" {
		// A face box on a tiny image can resolve to nothing.
		log.Warn("located regions are empty, using fixed regions", zap.Error(err))
		if regions, err = (facebox.Fixed{}).Locate(ctx, img); err != nil {
			return nil, err
		}
		fs, err = regions.Extractor().ExtractImage(img)
	}
	if err != nil {
		return nil, err
	}

	prediction := s.predictor.PredictFeatures(fs)
	subtype, err := s.predictor.Table().Lookup(prediction.Subtype)
	if err != nil {
		return nil, err
	}

	hair := naming.ClassifyHair(fs.Hair.Sample)
	family, _ := naming.HairFamily(hair)

	b := img.Bounds()
	res := &Result{
		Width:       b.Dx(),
		Height:      b.Dy(),
		Regions:     regions,
		Features:    fs,
		Prediction:  prediction,
		Subtype:     subtype,
		HairColor:   hair,
		HairFamily:  family,
		SkinPalette: imaging.Palette(img, fs.Skin.Rect.Add(b.Min), paletteSize),
	}

	log.Debug("portrait analyzed",
		zap.String("regions", regions.Source),
		zap.String("subtype", prediction.Subtype),
		zap.Float64("confidence", prediction.Confidence),
	)
	return res, nil
}

func (s *Service) lookup(ctx context.Context, key string, log *zap.Logger) (*Result, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			log.Warn("cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		log.Warn("discarding unreadable cache entry", zap.Error(err))
		return nil, false
	}
	res.Cached = true
	return &res, true
}

func (s *Service) store(ctx context.Context, key string, res *Result, log *zap.Logger) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		log.Warn("failed to encode result for cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		log.Warn("cache write failed", zap.Error(err))
	}
}
