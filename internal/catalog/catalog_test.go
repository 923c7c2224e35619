package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ironsheep/coloring-mcp/internal/classifier"
	"github.com/ironsheep/coloring-mcp/internal/colormath"
	"github.com/ironsheep/coloring-mcp/internal/features"
	"github.com/ironsheep/coloring-mcp/internal/taxonomy"
)

// dryRunDB builds SQL without ever touching a server. The default write
// transaction is skipped because beginning one would dial Postgres.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=localhost user=test dbname=test sslmode=disable"), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db
}

func TestTableNames(t *testing.T) {
	require.Equal(t, "face_images", FaceImage{}.TableName())
	require.Equal(t, "color_labels", ColorLabel{}.TableName())
}

func TestBeforeCreateAssignsID(t *testing.T) {
	img := &FaceImage{}
	require.NoError(t, img.BeforeCreate(nil))
	require.NotEqual(t, uuid.Nil, img.ID)

	fixed := uuid.New()
	label := &ColorLabel{ID: fixed}
	require.NoError(t, label.BeforeCreate(nil))
	require.Equal(t, fixed, label.ID)
}

func TestNewLabel(t *testing.T) {
	id := uuid.New()
	label := NewLabel(id)
	require.Equal(t, id, label.FaceImageID)
	require.Equal(t, StatusUnlabeled, label.LabelStatus)
}

func TestApplyFeaturesAndPrediction(t *testing.T) {
	fs := features.Features(colormath.RGB(230, 200, 180), colormath.RGB(60, 40, 30))
	res := classifier.PredictFeatures(fs)

	label := NewLabel(uuid.New())
	label.ApplyFeatures(fs)
	label.ApplyPrediction(res)

	require.Equal(t, "#e6c8b4", label.SkinHex)
	require.Equal(t, []int{230, 200, 180}, label.SkinRGB)
	require.Equal(t, "#3c281e", label.HairHex)
	require.Equal(t, "warm", label.Undertone)
	require.Equal(t, 0.392, label.UndertoneConfidence)
	require.Equal(t, "light", label.Depth)
	require.Equal(t, fs.Luminance, label.DepthValue)
	require.Equal(t, "high", label.ContrastLevel)
	require.Equal(t, res.Subtype, label.AIPredictedSubtype)
	require.Equal(t, res.Confidence, label.AIConfidence)
	require.Equal(t, res.Alternatives, label.AIAlternatives)
}

func TestLabelSubtypePrefersConfirmed(t *testing.T) {
	label := &ColorLabel{AIPredictedSubtype: "cameo_summer"}
	require.Equal(t, "cameo_summer", label.Subtype())

	label.ConfirmedSubtype = "winter_rose"
	require.Equal(t, "winter_rose", label.Subtype())
}

func TestCreateStatementTargetsTable(t *testing.T) {
	db := dryRunDB(t)

	res := db.Create(&FaceImage{StoragePath: "originals/000001.jpg"})
	require.NoError(t, res.Error)
	require.Contains(t, res.Statement.SQL.String(), `INSERT INTO "face_images"`)

	label := NewLabel(uuid.New())
	label.SkinRGB = []int{1, 2, 3}
	res = db.Create(label)
	require.NoError(t, res.Error)
	stmt := res.Statement
	require.Contains(t, stmt.SQL.String(), `INSERT INTO "color_labels"`)
	require.NotEqual(t, uuid.Nil, label.ID)
}

func TestUpdateLabelWithoutRowIsNotFound(t *testing.T) {
	repo := NewRepository(dryRunDB(t), zap.NewNop())
	id := uuid.New()
	label := NewLabel(id)

	err := repo.UpdateLabel(context.Background(), id, label)
	require.ErrorIs(t, err, ErrLabelNotFound)
	require.NotNil(t, label.LabeledAt)
	require.Equal(t, id, label.FaceImageID)
}

func TestConfirm(t *testing.T) {
	sub, err := taxonomy.Default().Lookup("winter_rose")
	require.NoError(t, err)

	label := &ColorLabel{AIPredictedSubtype: "cameo_summer", LabelStatus: StatusNeedsReview}
	label.Confirm(sub)

	require.Equal(t, StatusConfirmed, label.LabelStatus)
	require.Equal(t, "winter_rose", label.ConfirmedSubtype)
	require.Equal(t, "winter", label.ConfirmedSeason)
	require.Equal(t, "winter_rose", label.Subtype())
}
