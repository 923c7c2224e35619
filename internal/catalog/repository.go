package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ironsheep/coloring-mcp/internal/logging"
)

// ErrLabelNotFound is returned by UpdateLabel when the image has no label.
var ErrLabelNotFound = errors.New("color label not found")

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access db handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return db, nil
}

// Stats summarizes the catalog.
type Stats struct {
	TotalImages     int64                 `json:"total_images"`
	ProcessedImages int64                 `json:"processed_images"`
	TotalLabels     int64                 `json:"total_labels"`
	ByStatus        map[LabelStatus]int64 `json:"by_status"`
}

// SubtypeCount is one row of the subtype distribution.
type SubtypeCount struct {
	Subtype string `json:"subtype"`
	Count   int64  `json:"count"`
}

// Repository provides persistence APIs for face images and color labels.
type Repository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewRepository creates a new repository instance.
func NewRepository(db *gorm.DB, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{db: db, logger: logger.Named("catalog")}
}

// AutoMigrate ensures the schema is available.
func (r *Repository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&FaceImage{}, &ColorLabel{})
}

// InsertFaceImages stores images in batches of batchSize. IDs are assigned
// on the passed records.
func (r *Repository) InsertFaceImages(ctx context.Context, images []*FaceImage, batchSize int) error {
	if len(images) == 0 {
		return nil
	}
	if batchSize < 1 {
		batchSize = len(images)
	}
	if err := r.db.WithContext(ctx).CreateInBatches(images, batchSize).Error; err != nil {
		return r.fail("catalog.insert_face_images", err)
	}
	return nil
}

// CreateLabel stores a label. A zero status is stored as unlabeled.
func (r *Repository) CreateLabel(ctx context.Context, label *ColorLabel) error {
	if label.LabelStatus == "" {
		label.LabelStatus = StatusUnlabeled
	}
	if err := r.db.WithContext(ctx).Create(label).Error; err != nil {
		return r.fail("catalog.create_label", err)
	}
	return nil
}

// UpdateLabel overwrites the label of faceImageID with label and stamps
// LabeledAt.
func (r *Repository) UpdateLabel(ctx context.Context, faceImageID uuid.UUID, label *ColorLabel) error {
	now := time.Now().UTC()
	label.LabeledAt = &now
	label.FaceImageID = faceImageID

	res := r.db.WithContext(ctx).
		Model(&ColorLabel{}).
		Where("face_image_id = ?", faceImageID).
		Select("*").
		Omit("id", "face_image_id", "created_at").
		Updates(label)
	if res.Error != nil {
		return r.fail("catalog.update_label", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.fail("catalog.update_label", fmt.Errorf("%w: image %s", ErrLabelNotFound, faceImageID))
	}
	return nil
}

// FindLabel returns the label for faceImageID.
func (r *Repository) FindLabel(ctx context.Context, faceImageID uuid.UUID) (*ColorLabel, error) {
	var label ColorLabel
	err := r.db.WithContext(ctx).First(&label, "face_image_id = ?", faceImageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: image %s", ErrLabelNotFound, faceImageID)
	}
	if err != nil {
		return nil, r.fail("catalog.find_label", err)
	}
	return &label, nil
}

// HashesBySource returns the perceptual hashes already stored for source,
// so a new ingestion run can skip duplicates of earlier runs.
func (r *Repository) HashesBySource(ctx context.Context, source string) ([]string, error) {
	var hashes []string
	err := r.db.WithContext(ctx).
		Model(&FaceImage{}).
		Where("source = ? AND perceptual_hash <> ''", source).
		Pluck("perceptual_hash", &hashes).Error
	if err != nil {
		return nil, r.fail("catalog.hashes_by_source", err)
	}
	return hashes, nil
}

// Stats counts images and labels.
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	db := r.db.WithContext(ctx)
	stats := &Stats{ByStatus: make(map[LabelStatus]int64, len(LabelStatuses))}

	if err := db.Model(&FaceImage{}).Count(&stats.TotalImages).Error; err != nil {
		return nil, r.fail("catalog.stats", err)
	}
	if err := db.Model(&FaceImage{}).Where("is_processed = ?", true).Count(&stats.ProcessedImages).Error; err != nil {
		return nil, r.fail("catalog.stats", err)
	}

	var rows []struct {
		Status LabelStatus
		Count  int64
	}
	err := db.Model(&ColorLabel{}).
		Select("label_status AS status, COUNT(*) AS count").
		Group("label_status").
		Scan(&rows).Error
	if err != nil {
		return nil, r.fail("catalog.stats", err)
	}

	for _, s := range LabelStatuses {
		stats.ByStatus[s] = 0
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		stats.TotalLabels += row.Count
	}
	return stats, nil
}

// Distribution counts labels per subtype, preferring the confirmed subtype
// over the prediction, most common first.
func (r *Repository) Distribution(ctx context.Context) ([]SubtypeCount, error) {
	var rows []SubtypeCount
	err := r.db.WithContext(ctx).
		Model(&ColorLabel{}).
		Select("COALESCE(NULLIF(confirmed_subtype, ''), ai_predicted_subtype) AS subtype, COUNT(*) AS count").
		Where("confirmed_subtype <> '' OR ai_predicted_subtype <> ''").
		Group("subtype").
		Order("count DESC, subtype").
		Scan(&rows).Error
	if err != nil {
		return nil, r.fail("catalog.distribution", err)
	}
	return rows, nil
}

func (r *Repository) fail(operation string, err error) error {
	r.logger.Error("catalog operation failed", zap.String("operation", operation), zap.Error(err))
	return logging.NewOperationError(operation, "", err)
}
