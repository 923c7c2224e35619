// Package ingest loads a directory of portraits into the catalog, optionally
// auto-labeling each one with the extracted traits and predicted subtype.
package ingest

import (
	"context"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ironsheep/coloring-mcp/internal/catalog"
	"github.com/ironsheep/coloring-mcp/internal/classifier"
	"github.com/ironsheep/coloring-mcp/internal/facebox"
	"github.com/ironsheep/coloring-mcp/internal/imaging"
	"github.com/ironsheep/coloring-mcp/internal/naming"
)

// Catalog is the part of the catalog repository ingestion writes to.
type Catalog interface {
	InsertFaceImages(ctx context.Context, images []*catalog.FaceImage, batchSize int) error
	CreateLabel(ctx context.Context, label *catalog.ColorLabel) error
}

// hashLister is implemented by catalogs that can report stored hashes.
type hashLister interface {
	HashesBySource(ctx context.Context, source string) ([]string, error)
}

// Options controls an ingestion run.
type Options struct {
	Source             string
	BatchSize          int
	ThumbnailSize      int
	MaxImages          int // 0 means no limit
	AutoLabel          bool
	AutoLabelThreshold float64
	DedupDistance      int
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		Source:             "local",
		BatchSize:          50,
		ThumbnailSize:      256,
		AutoLabel:          true,
		AutoLabelThreshold: 0.7,
		DedupDistance:      10,
	}
}

// Summary reports what a run did.
type Summary struct {
	Processed  int                         `json:"processed"`
	Duplicates int                         `json:"duplicates"`
	Failed     int                         `json:"failed"`
	ByStatus   map[catalog.LabelStatus]int `json:"by_status"`
	Elapsed    time.Duration               `json:"elapsed"`
}

// LabelStatus applies the auto-label policy to a prediction confidence.
func LabelStatus(confidence, threshold float64) catalog.LabelStatus {
	if confidence >= threshold {
		return catalog.StatusAIPredicted
	}
	return catalog.StatusNeedsReview
}

// SupportedExtension reports whether path names a decodable image.
func SupportedExtension(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}

// Ingester runs ingestion against a catalog and a storage backend.
type Ingester struct {
	catalog   Catalog
	storage   Storage
	locator   facebox.Locator
	predictor *classifier.Predictor
	logger    *zap.Logger
	opts      Options
	dedup     *Deduper
}

// New returns an Ingester. A nil locator uses the canonical regions and a nil
// predictor uses the default taxonomy.
func New(cat Catalog, storage Storage, locator facebox.Locator, predictor *classifier.Predictor, opts Options, logger *zap.Logger) *Ingester {
	if locator == nil {
		locator = facebox.Fixed{}
	}
	if predictor == nil {
		predictor = classifier.New(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 1
	}
	return &Ingester{
		catalog:   cat,
		storage:   storage,
		locator:   locator,
		predictor: predictor,
		logger:    logger.Named("ingest"),
		opts:      opts,
		dedup:     NewDeduper(opts.DedupDistance),
	}
}

type pending struct {
	image *catalog.FaceImage
	label *catalog.ColorLabel
}

// Run ingests every supported image below dir in lexical path order.
//
// Files that cannot be read, decoded or written to storage are logged and
// counted as failed, and the run continues. An image only counts toward
// deduplication once both its original and thumbnail are stored, so a later
// copy of a failed image is still ingested. Catalog errors abort the run.
func (in *Ingester) Run(ctx context.Context, dir string) (*Summary, error) {
	start := time.Now()
	summary := &Summary{ByStatus: make(map[catalog.LabelStatus]int)}

	paths, err := listImages(dir)
	if err != nil {
		return nil, err
	}

	if lister, ok := in.catalog.(hashLister); ok && in.opts.DedupDistance > 0 {
		hashes, err := lister.HashesBySource(ctx, in.opts.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to load existing hashes: %w", err)
		}
		if bad := in.dedup.Seed(hashes); bad > 0 {
			in.logger.Warn("ignored unparsable stored hashes", zap.Int("count", bad))
		}
	}

	in.logger.Info("ingestion started",
		zap.String("dir", dir),
		zap.Int("candidates", len(paths)),
		zap.Int("batch_size", in.opts.BatchSize),
		zap.Bool("auto_label", in.opts.AutoLabel),
	)

	batch := make([]pending, 0, in.opts.BatchSize)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if in.opts.MaxImages > 0 && summary.Processed >= in.opts.MaxImages {
			break
		}

		item, dup, err := in.prepare(ctx, path, summary.Processed)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return summary, ctxErr
			}
			in.logger.Warn("skipping image", zap.String("path", path), zap.Error(err))
			summary.Failed++
			continue
		}
		if dup {
			in.logger.Debug("skipping duplicate", zap.String("path", path))
			summary.Duplicates++
			continue
		}

		batch = append(batch, item)
		summary.Processed++
		summary.ByStatus[item.label.LabelStatus]++

		if len(batch) >= in.opts.BatchSize {
			if err := in.flush(ctx, batch); err != nil {
				return summary, err
			}
			batch = batch[:0]
		}
	}

	if err := in.flush(ctx, batch); err != nil {
		return summary, err
	}

	summary.Elapsed = time.Since(start)
	in.logger.Info("ingestion finished",
		zap.Int("processed", summary.Processed),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

// prepare stores one image and builds its catalog records. seq numbers the
// accepted images and becomes the zero-padded source id.
func (in *Ingester) prepare(ctx context.Context, path string, seq int) (pending, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pending{}, false, err
	}
	img, format, err := imaging.DecodeBytes(data)
	if err != nil {
		return pending{}, false, err
	}

	var hash string
	if in.opts.DedupDistance > 0 {
		var dup bool
		if dup, hash = in.dedup.Check(img); dup {
			return pending{}, true, nil
		}
	}

	sourceID := fmt.Sprintf("%06d", seq)
	ext := strings.ToLower(filepath.Ext(path))

	storagePath, err := in.storage.Put(ctx, "originals/"+sourceID+ext, data)
	if err != nil {
		return pending{}, false, fmt.Errorf("failed to store original: %w", err)
	}
	thumbData, err := imaging.Encode(imaging.Thumbnail(img, in.opts.ThumbnailSize), "jpeg")
	if err != nil {
		return pending{}, false, err
	}
	thumbPath, err := in.storage.Put(ctx, "thumbnails/"+sourceID+"_thumb.jpg", thumbData)
	if err != nil {
		return pending{}, false, fmt.Errorf("failed to store thumbnail: %w", err)
	}
	if err := in.dedup.Remember(hash); err != nil {
		in.logger.Warn("failed to remember hash", zap.String("path", path), zap.Error(err))
	}

	b := img.Bounds()
	record := &catalog.FaceImage{
		ID:               uuid.New(),
		StoragePath:      storagePath,
		ThumbnailPath:    thumbPath,
		OriginalFilename: filepath.Base(path),
		Source:           in.opts.Source,
		SourceID:         sourceID,
		Width:            b.Dx(),
		Height:           b.Dy(),
		FileSizeBytes:    int64(len(data)),
		PerceptualHash:   hash,
		Attribution:      ReadAttribution(data, format).String(),
	}

	label := catalog.NewLabel(record.ID)
	if in.opts.AutoLabel {
		label = in.autoLabel(ctx, record, img)
	}
	return pending{image: record, label: label}, false, nil
}

// autoLabel extracts and predicts. Any failure leaves the image unlabeled.
func (in *Ingester) autoLabel(ctx context.Context, record *catalog.FaceImage, img image.Image) *catalog.ColorLabel {
	label := catalog.NewLabel(record.ID)

	regions, err := in.locator.Locate(ctx, img)
	if err != nil {
		in.logger.Warn("auto-label failed", zap.String("source_id", record.SourceID), zap.Error(err))
		return label
	}
	feats, err := regions.Extractor().ExtractImage(img)
	if err != nil {
		in.logger.Warn("auto-label failed", zap.String("source_id", record.SourceID), zap.Error(err))
		return label
	}
	res := in.predictor.PredictFeatures(feats)

	label.ApplyFeatures(feats)
	label.ApplyPrediction(res)
	label.HairColorName = naming.ClassifyHair(feats.Hair.Sample)
	label.LabelStatus = LabelStatus(res.Confidence, in.opts.AutoLabelThreshold)

	now := time.Now().UTC()
	label.LabeledAt = &now
	record.IsProcessed = true
	record.ProcessedAt = &now
	return label
}

func (in *Ingester) flush(ctx context.Context, batch []pending) error {
	if len(batch) == 0 {
		return nil
	}
	images := make([]*catalog.FaceImage, len(batch))
	for i, item := range batch {
		images[i] = item.image
	}
	if err := in.catalog.InsertFaceImages(ctx, images, in.opts.BatchSize); err != nil {
		return fmt.Errorf("failed to insert face images: %w", err)
	}
	for _, item := range batch {
		item.label.FaceImageID = item.image.ID
		if err := in.catalog.CreateLabel(ctx, item.label); err != nil {
			return fmt.Errorf("failed to create label for %s: %w", item.image.SourceID, err)
		}
	}
	in.logger.Debug("batch stored", zap.Int("size", len(batch)))
	return nil
}

func listImages(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && SupportedExtension(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}
