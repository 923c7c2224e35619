// Package catalog persists ingested portraits and their color labels in
// Postgres through gorm.
package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ironsheep/coloring-mcp/internal/classifier"
	"github.com/ironsheep/coloring-mcp/internal/features"
	"github.com/ironsheep/coloring-mcp/internal/taxonomy"
)

// LabelStatus is the review state of a ColorLabel.
type LabelStatus string

const (
	StatusUnlabeled   LabelStatus = "unlabeled"
	StatusAIPredicted LabelStatus = "ai_predicted"
	StatusNeedsReview LabelStatus = "needs_review"
	StatusConfirmed   LabelStatus = "confirmed"
)

// LabelStatuses lists every status in workflow order.
var LabelStatuses = []LabelStatus{StatusUnlabeled, StatusAIPredicted, StatusNeedsReview, StatusConfirmed}

// FaceImage is one stored portrait.
type FaceImage struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	StoragePath      string     `gorm:"column:storage_path;not null"`
	ThumbnailPath    string     `gorm:"column:thumbnail_path"`
	OriginalFilename string     `gorm:"column:original_filename"`
	Source           string     `gorm:"column:source;size:32;index"`
	SourceID         string     `gorm:"column:source_id;size:64"`
	Width            int        `gorm:"column:width"`
	Height           int        `gorm:"column:height"`
	FileSizeBytes    int64      `gorm:"column:file_size_bytes"`
	PerceptualHash   string     `gorm:"column:perceptual_hash;size:32;index"`
	Attribution      string     `gorm:"column:attribution;type:text"`
	IsProcessed      bool       `gorm:"column:is_processed;default:false"`
	ProcessedAt      *time.Time `gorm:"column:processed_at"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

// TableName overrides the default table name.
func (FaceImage) TableName() string {
	return "face_images"
}

// BeforeCreate assigns a random id when none is set.
func (f *FaceImage) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// ColorLabel holds the extracted traits and predicted subtype of a FaceImage.
// There is at most one label per image.
type ColorLabel struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	FaceImageID uuid.UUID   `gorm:"type:uuid;column:face_image_id;uniqueIndex;not null" json:"face_image_id"`
	LabelStatus LabelStatus `gorm:"column:label_status;size:32;index;default:unlabeled" json:"label_status"`
	LabeledAt   *time.Time  `gorm:"column:labeled_at" json:"labeled_at"`

	AIPredictedSubtype string                   `gorm:"column:ai_predicted_subtype;size:64" json:"ai_predicted_subtype"`
	AIConfidence       float64                  `gorm:"column:ai_confidence" json:"ai_confidence"`
	AIAlternatives     []classifier.Alternative `gorm:"column:ai_alternatives;type:jsonb;serializer:json" json:"ai_alternatives"`

	ConfirmedSeason  string `gorm:"column:confirmed_season;size:16" json:"confirmed_season"`
	ConfirmedSubtype string `gorm:"column:confirmed_subtype;size:64" json:"confirmed_subtype"`

	Undertone           string  `gorm:"column:undertone;size:16" json:"undertone"`
	UndertoneConfidence float64 `gorm:"column:undertone_confidence" json:"undertone_confidence"`
	Depth               string  `gorm:"column:depth;size:16" json:"depth"`
	DepthValue          float64 `gorm:"column:depth_value" json:"depth_value"`
	ContrastLevel       string  `gorm:"column:contrast_level;size:16" json:"contrast_level"`
	ContrastValue       float64 `gorm:"column:contrast_value" json:"contrast_value"`

	SkinHex       string `gorm:"column:skin_hex;size:7" json:"skin_hex"`
	SkinRGB       []int  `gorm:"column:skin_rgb;type:jsonb;serializer:json" json:"skin_rgb"`
	HairHex       string `gorm:"column:hair_hex;size:7" json:"hair_hex"`
	HairRGB       []int  `gorm:"column:hair_rgb;type:jsonb;serializer:json" json:"hair_rgb"`
	HairColorName string `gorm:"column:hair_color_name;size:32" json:"hair_color_name"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides the default table name.
func (ColorLabel) TableName() string {
	return "color_labels"
}

// BeforeCreate assigns a random id when none is set.
func (l *ColorLabel) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// NewLabel returns an unlabeled record for the given image.
func NewLabel(faceImageID uuid.UUID) *ColorLabel {
	return &ColorLabel{FaceImageID: faceImageID, LabelStatus: StatusUnlabeled}
}

// ApplyFeatures copies the extracted traits into l.
func (l *ColorLabel) ApplyFeatures(fs *features.FeatureSet) {
	l.SkinHex = fs.SkinHex
	l.SkinRGB = fs.SkinRGB
	l.HairHex = fs.HairHex
	l.HairRGB = fs.HairRGB
	l.Undertone = string(fs.Undertone)
	l.UndertoneConfidence = fs.UndertoneConfidence
	l.Depth = string(fs.Depth)
	l.DepthValue = fs.Luminance
	l.ContrastLevel = string(fs.ContrastLevel)
	l.ContrastValue = fs.ContrastValue
}

// ApplyPrediction copies the classifier output into l.
func (l *ColorLabel) ApplyPrediction(res classifier.Result) {
	l.AIPredictedSubtype = res.Subtype
	l.AIConfidence = res.Confidence
	l.AIAlternatives = res.Alternatives
}

// Confirm records a reviewer's subtype choice and marks l confirmed.
func (l *ColorLabel) Confirm(subtype taxonomy.Subtype) {
	l.ConfirmedSubtype = subtype.Code
	l.ConfirmedSeason = string(subtype.Season)
	l.LabelStatus = StatusConfirmed
}

// Subtype is the confirmed subtype if there is one, otherwise the predicted
// one.
func (l *ColorLabel) Subtype() string {
	if l.ConfirmedSubtype != "" {
		return l.ConfirmedSubtype
	}
	return l.AIPredictedSubtype
}
