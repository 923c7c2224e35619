package ingest

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ironsheep/coloring-mcp/internal/catalog"
)

type stubCatalog struct {
	mu      sync.Mutex
	images  []*catalog.FaceImage
	labels  []*catalog.ColorLabel
	batches []int
	hashes  []string
	fail    error
	hashErr error
}

func (s *stubCatalog) InsertFaceImages(_ context.Context, images []*catalog.FaceImage, _ int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.images = append(s.images, images...)
	s.batches = append(s.batches, len(images))
	return nil
}

func (s *stubCatalog) CreateLabel(_ context.Context, label *catalog.ColorLabel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels = append(s.labels, label)
	return nil
}

func (s *stubCatalog) HashesBySource(context.Context, string) ([]string, error) {
	return s.hashes, s.hashErr
}

type memStorage struct {
	mu       sync.Mutex
	files    map[string][]byte
	failures int // fail this many Puts before succeeding
}

func (m *memStorage) Put(_ context.Context, name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return "", errors.New("disk full")
	}
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[name] = data
	return name, nil
}

// noisePortrait fills a 64x64 image with seeded noise, then paints the
// canonical hair and skin boxes with flat colors so the extracted features
// are exact while the perceptual hash differs per seed.
func noisePortrait(seed int64, skin, hair color.RGBA) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := uint8(rng.Intn(256))
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	fill := func(r image.Rectangle, c color.RGBA) {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				img.SetRGBA(x, y, c)
			}
		}
	}
	fill(image.Rect(16, 0, 48, 9), hair)   // hair box 0.25-0.75 x 0-0.15
	fill(image.Rect(19, 19, 44, 41), skin) // skin box 0.30-0.70 x 0.30-0.65
	return img
}

var (
	warmSkin = color.RGBA{230, 200, 180, 255}
	darkHair = color.RGBA{60, 40, 30, 255}
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestLabelStatus(t *testing.T) {
	tests := []struct {
		confidence, threshold float64
		want                  catalog.LabelStatus
	}{
		{0.9, 0.7, catalog.StatusAIPredicted},
		{0.7, 0.7, catalog.StatusAIPredicted},
		{0.699, 0.7, catalog.StatusNeedsReview},
		{0, 0.7, catalog.StatusNeedsReview},
		{0, 0, catalog.StatusAIPredicted},
	}
	for _, tt := range tests {
		if got := LabelStatus(tt.confidence, tt.threshold); got != tt.want {
			t.Errorf("LabelStatus(%v, %v) = %s, want %s", tt.confidence, tt.threshold, got, tt.want)
		}
	}
}

func TestSupportedExtension(t *testing.T) {
	for _, p := range []string{"a.jpg", "b.JPEG", "c.png", "d.gif", "e.webp"} {
		require.True(t, SupportedExtension(p), p)
	}
	for _, p := range []string{"a.txt", "b", "c.bmp"} {
		require.False(t, SupportedExtension(p), p)
	}
}

func TestRunAutoLabels(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 3; i++ {
		writePNG(t, filepath.Join(dir, "p"+string(rune('a'+i))+".png"), noisePortrait(int64(i+1), warmSkin, darkHair))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	cat := &stubCatalog{}
	store := &memStorage{}
	opts := DefaultOptions()
	opts.BatchSize = 2
	opts.AutoLabelThreshold = 0.45

	summary, err := New(cat, store, nil, nil, opts, zap.NewNop()).Run(context.Background(), dir)
	require.NoError(t, err)

	require.Equal(t, 3, summary.Processed)
	require.Equal(t, 0, summary.Duplicates)
	require.Equal(t, 0, summary.Failed)
	require.Equal(t, 3, summary.ByStatus[catalog.StatusAIPredicted])
	require.Equal(t, []int{2, 1}, cat.batches)
	require.Len(t, cat.labels, 3)

	for i, img := range cat.images {
		require.Equal(t, []string{"000000", "000001", "000002"}[i], img.SourceID)
		require.Equal(t, "local", img.Source)
		require.Equal(t, 64, img.Width)
		require.True(t, img.IsProcessed)
		require.NotEmpty(t, img.PerceptualHash)
		require.Contains(t, store.files, img.StoragePath)
		require.Contains(t, store.files, img.ThumbnailPath)
	}
	require.Equal(t, "originals/000000.png", cat.images[0].StoragePath)
	require.Equal(t, "thumbnails/000000_thumb.jpg", cat.images[0].ThumbnailPath)

	label := cat.labels[0]
	require.Equal(t, cat.images[0].ID, label.FaceImageID)
	require.Equal(t, catalog.StatusAIPredicted, label.LabelStatus)
	require.Equal(t, "french_spring", label.AIPredictedSubtype)
	require.Equal(t, 0.487, label.AIConfidence)
	require.Equal(t, "#e6c8b4", label.SkinHex)
	require.Equal(t, "#3c281e", label.HairHex)
	require.Equal(t, "espresso", label.HairColorName)
	require.NotNil(t, label.LabeledAt)
}

func TestRunDefaultThresholdNeedsReview(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), noisePortrait(7, warmSkin, darkHair))

	cat := &stubCatalog{}
	summary, err := New(cat, &memStorage{}, nil, nil, DefaultOptions(), nil).Run(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 1, summary.ByStatus[catalog.StatusNeedsReview])
	require.Equal(t, catalog.StatusNeedsReview, cat.labels[0].LabelStatus)
}

func TestRunWithoutAutoLabel(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), noisePortrait(1, warmSkin, darkHair))

	cat := &stubCatalog{}
	opts := DefaultOptions()
	opts.AutoLabel = false

	summary, err := New(cat, &memStorage{}, nil, nil, opts, nil).Run(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 1, summary.ByStatus[catalog.StatusUnlabeled])
	require.False(t, cat.images[0].IsProcessed)
	require.Empty(t, cat.labels[0].AIPredictedSubtype)
}

func TestRunSkipsDuplicatesAndBadFiles(t *testing.T) {
	dir := t.TempDir()
	img := noisePortrait(42, warmSkin, darkHair)
	writePNG(t, filepath.Join(dir, "a.png"), img)
	writePNG(t, filepath.Join(dir, "b.png"), img)
	writePNG(t, filepath.Join(dir, "c.png"), noisePortrait(43, warmSkin, darkHair))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("not an image"), 0o644))

	cat := &stubCatalog{}
	summary, err := New(cat, &memStorage{}, nil, nil, DefaultOptions(), nil).Run(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Processed)
	require.Equal(t, 1, summary.Duplicates)
	require.Equal(t, 1, summary.Failed)
	require.Equal(t, "a.png", cat.images[0].OriginalFilename)
	require.Equal(t, "c.png", cat.images[1].OriginalFilename)
	require.Equal(t, "000001", cat.images[1].SourceID)
}

func TestRunStorageFailureKeepsLaterCopy(t *testing.T) {
	dir := t.TempDir()
	img := noisePortrait(42, warmSkin, darkHair)
	writePNG(t, filepath.Join(dir, "a.png"), img)
	writePNG(t, filepath.Join(dir, "b.png"), img)

	cat := &stubCatalog{}
	store := &memStorage{failures: 1}
	summary, err := New(cat, store, nil, nil, DefaultOptions(), nil).Run(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Failed)
	require.Equal(t, 0, summary.Duplicates)
	require.Equal(t, 1, summary.Processed)
	require.Len(t, cat.images, 1)
	require.Equal(t, "b.png", cat.images[0].OriginalFilename)
	require.Equal(t, "000000", cat.images[0].SourceID)
	require.Len(t, store.files, 2)
}

func TestRunSeedsHashesFromCatalog(t *testing.T) {
	dir := t.TempDir()
	img := noisePortrait(9, warmSkin, darkHair)
	writePNG(t, filepath.Join(dir, "a.png"), img)

	d := NewDeduper(10)
	_, hash := d.Check(img)

	cat := &stubCatalog{hashes: []string{hash, "garbage"}}
	summary, err := New(cat, &memStorage{}, nil, nil, DefaultOptions(), nil).Run(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 0, summary.Processed)
	require.Equal(t, 1, summary.Duplicates)
}

func TestRunMaxImages(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 4; i++ {
		writePNG(t, filepath.Join(dir, "p"+string(rune('a'+i))+".png"), noisePortrait(int64(100+i), warmSkin, darkHair))
	}

	cat := &stubCatalog{}
	opts := DefaultOptions()
	opts.MaxImages = 2
	summary, err := New(cat, &memStorage{}, nil, nil, opts, nil).Run(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Processed)
	require.Len(t, cat.images, 2)
}

func TestRunCatalogFailureAborts(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), noisePortrait(1, warmSkin, darkHair))

	cat := &stubCatalog{fail: errors.New("db down")}
	_, err := New(cat, &memStorage{}, nil, nil, DefaultOptions(), nil).Run(context.Background(), dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "db down")
}

func TestRunCanceled(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), noisePortrait(1, warmSkin, darkHair))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(&stubCatalog{}, &memStorage{}, nil, nil, DefaultOptions(), nil).Run(ctx, dir)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunMissingDir(t *testing.T) {
	_, err := New(&stubCatalog{}, &memStorage{}, nil, nil, DefaultOptions(), nil).Run(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestDeduper(t *testing.T) {
	d := NewDeduper(10)
	a := noisePortrait(1, warmSkin, darkHair)
	b := noisePortrait(2, warmSkin, darkHair)

	dup, hashA := d.Check(a)
	require.False(t, dup)
	require.NotEmpty(t, hashA)

	dup, _ = d.Check(a)
	require.False(t, dup, "Check alone must not remember")
	require.Zero(t, d.Len())

	require.NoError(t, d.Remember(hashA))
	dup, _ = d.Check(a)
	require.True(t, dup)

	dup, hashB := d.Check(b)
	require.False(t, dup)
	require.NoError(t, d.Remember(hashB))
	require.NoError(t, d.Remember(""))
	require.Error(t, d.Remember("nope"))
	require.Equal(t, 2, d.Len())

	require.Equal(t, 1, NewDeduper(10).Seed([]string{hashA, "nope"}))
}

func TestLocalStorage(t *testing.T) {
	root := t.TempDir()
	s := LocalStorage{Root: root}

	path, err := s.Put(context.Background(), "thumbnails/000001_thumb.jpg", []byte("data"))
	require.NoError(t, err)
	require.Equal(t, "thumbnails/000001_thumb.jpg", path)

	got, err := os.ReadFile(filepath.Join(root, "thumbnails", "000001_thumb.jpg"))
	require.NoError(t, err)
	require.Equal(t, "data", string(got))
}

func TestAttribution(t *testing.T) {
	a := Attribution{Artist: "Jane Roe", License: "CC-BY-4.0"}
	require.Equal(t, "Jane Roe; CC-BY-4.0", a.String())
	require.Empty(t, Attribution{}.String())

	require.Equal(t, Attribution{}, ReadAttribution(nil, "png"))
	require.Equal(t, Attribution{}, ReadAttribution([]byte("GIF89a"), "gif"))
}
