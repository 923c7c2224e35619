package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/coloring-mcp/internal/analysis"
	"github.com/ironsheep/coloring-mcp/internal/catalog"
	"github.com/ironsheep/coloring-mcp/internal/classifier"
)

type stubAnalyzer struct {
	calls int
	got   []byte
	err   error
}

func (s *stubAnalyzer) AnalyzeBytes(_ context.Context, data []byte) (*analysis.Result, error) {
	s.calls++
	s.got = data
	if s.err != nil {
		return nil, s.err
	}
	return &analysis.Result{Width: 1, Height: 1, HairColor: "espresso"}, nil
}

type stubLabels struct {
	labels    map[uuid.UUID]*catalog.ColorLabel
	updated   []*catalog.ColorLabel
	updateErr error
}

func (s *stubLabels) FindLabel(_ context.Context, id uuid.UUID) (*catalog.ColorLabel, error) {
	label, ok := s.labels[id]
	if !ok {
		return nil, catalog.ErrLabelNotFound
	}
	copied := *label
	return &copied, nil
}

func (s *stubLabels) UpdateLabel(_ context.Context, id uuid.UUID, label *catalog.ColorLabel) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	label.FaceImageID = id
	s.updated = append(s.updated, label)
	return nil
}

func setupRouter(analyzer Analyzer, maxUpload int64, auth gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewHandler(analyzer, nil, maxUpload, nil), auth)
}

func TestHealth(t *testing.T) {
	router := setupRouter(&stubAnalyzer{}, 0, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	require.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	router := setupRouter(&stubAnalyzer{}, 0, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, "req-42", w.Header().Get(requestIDHeader))
}

func TestListSubtypes(t *testing.T) {
	router := setupRouter(&stubAnalyzer{}, 0, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/subtypes", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var all struct {
		Count    int              `json:"count"`
		Subtypes []map[string]any `json:"subtypes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Equal(t, classifier.New(nil).Table().Len(), all.Count)
	require.Equal(t, "french_spring", all.Subtypes[0]["code"])
	require.Equal(t, "French Spring", all.Subtypes[0]["display_name"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/subtypes?season=winter", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var winter struct {
		Count    int              `json:"count"`
		Subtypes []map[string]any `json:"subtypes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &winter))
	require.Positive(t, winter.Count)
	require.Less(t, winter.Count, all.Count)
	for _, s := range winter.Subtypes {
		require.Equal(t, "winter", s["season"])
	}
}

func TestListSubtypesUnknownSeason(t *testing.T) {
	router := setupRouter(&stubAnalyzer{}, 0, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/subtypes?season=monsoon", nil))

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPredict(t *testing.T) {
	router := setupRouter(&stubAnalyzer{}, 0, nil)

	body := `{"undertone":"warm","depth":"light","contrast":"high","confidence":0.392}`
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var res classifier.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Equal(t, "french_spring", res.Subtype)
	require.InDelta(t, 0.487, res.Confidence, 1e-9)
	require.LessOrEqual(t, len(res.Alternatives), 4)
}

func TestPredictMissingFields(t *testing.T) {
	router := setupRouter(&stubAnalyzer{}, 0, nil)

	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`{"undertone":"warm"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeRejectsLargePayload(t *testing.T) {
	analyzer := &stubAnalyzer{}
	router := setupRouter(analyzer, 1024, nil)

	body, contentType := buildMultipartBody(t, "image/png", bytes.Repeat([]byte("a"), 1025))
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	require.Zero(t, analyzer.calls)
}

func TestAnalyzeRejectsUnsupportedContentType(t *testing.T) {
	analyzer := &stubAnalyzer{}
	router := setupRouter(analyzer, 0, nil)

	body, contentType := buildMultipartBody(t, "text/plain", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	require.Zero(t, analyzer.calls)
}

func TestAnalyzeMissingFile(t *testing.T) {
	router := setupRouter(&stubAnalyzer{}, 0, nil)

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(""))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzePassesImageThrough(t *testing.T) {
	analyzer := &stubAnalyzer{}
	router := setupRouter(analyzer, 0, nil)

	payload := []byte("\x89PNG fake")
	body, contentType := buildMultipartBody(t, "image/png", payload)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, analyzer.calls)
	require.Equal(t, payload, analyzer.got)
	require.Contains(t, w.Body.String(), `"hair_color":"espresso"`)
}

func TestAnalyzeFailure(t *testing.T) {
	router := setupRouter(&stubAnalyzer{err: errors.New("failed to decode image")}, 0, nil)

	body, contentType := buildMultipartBody(t, "image/jpeg", []byte("junk"))
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Contains(t, w.Body.String(), "failed to decode image")
}

func TestAnalyzeEndToEnd(t *testing.T) {
	router := setupRouter(analysis.New(analysis.Options{}), 0, nil)

	body, contentType := buildMultipartBody(t, "image/png", encodePortrait(t))
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var res analysis.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Equal(t, 100, res.Width)
	require.Equal(t, "french_spring", res.Prediction.Subtype)
	require.Equal(t, "espresso", res.HairColor)
}

func TestAuthGuardsPostRoutes(t *testing.T) {
	const secret = "test-secret"
	router := setupRouter(&stubAnalyzer{}, 0, JWTMiddleware(secret, "coloring"))
	body := `{"undertone":"cool","depth":"deep","contrast":"high"}`

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad signature", "Bearer " + signToken(t, "other", "user-1", "coloring"), http.StatusUnauthorized},
		{"wrong audience", "Bearer " + signToken(t, secret, "user-1", "billing"), http.StatusUnauthorized},
		{"missing subject", "Bearer " + signToken(t, secret, "", "coloring"), http.StatusUnauthorized},
		{"valid", "Bearer " + signToken(t, secret, "user-1", "coloring"), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			require.Equal(t, tt.status, w.Code)
		})
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSubjectFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var subject string
	router := gin.New()
	router.GET("/me", JWTMiddleware("k", ""), func(c *gin.Context) {
		subject, _ = Subject(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "k", "user-7", ""))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "user-7", subject)

	_, ok := Subject(context.Background())
	require.False(t, ok)
}

func signToken(t *testing.T, secret, subject, audience string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func buildMultipartBody(t *testing.T, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="upload"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return &body, writer.FormDataContentType()
}

// encodePortrait draws a flat warm-skin portrait with dark hair across the
// top quarter.
func encodePortrait(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	skin := color.RGBA{230, 200, 180, 255}
	hair := color.RGBA{60, 40, 30, 255}
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if y < 25 {
				img.SetRGBA(x, y, hair)
			} else {
				img.SetRGBA(x, y, skin)
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func labelRouter(store *stubLabels) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(&stubAnalyzer{}, nil, 0, nil).WithLabels(store)
	return NewRouter(h, nil)
}

func TestLabelRoutesAbsentWithoutStore(t *testing.T) {
	router := setupRouter(&stubAnalyzer{}, 0, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/labels/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetLabel(t *testing.T) {
	id := uuid.New()
	label := catalog.NewLabel(id)
	label.AIPredictedSubtype = "french_spring"
	router := labelRouter(&stubLabels{labels: map[uuid.UUID]*catalog.ColorLabel{id: label}})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/labels/"+id.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"ai_predicted_subtype":"french_spring"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/labels/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/labels/not-a-uuid", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirmLabel(t *testing.T) {
	id := uuid.New()
	label := catalog.NewLabel(id)
	label.LabelStatus = catalog.StatusNeedsReview
	label.AIPredictedSubtype = "french_spring"
	store := &stubLabels{labels: map[uuid.UUID]*catalog.ColorLabel{id: label}}
	router := labelRouter(store)

	confirm := func(target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := confirm("/labels/"+id.String()+"/confirm", `{"subtype":"winter_rose"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.updated, 1)
	require.Equal(t, catalog.StatusConfirmed, store.updated[0].LabelStatus)
	require.Equal(t, "winter_rose", store.updated[0].ConfirmedSubtype)
	require.Equal(t, "winter", store.updated[0].ConfirmedSeason)
	require.Equal(t, "french_spring", store.updated[0].AIPredictedSubtype)

	require.Equal(t, http.StatusBadRequest, confirm("/labels/"+id.String()+"/confirm", `{"subtype":"lavender_moon"}`).Code)
	require.Equal(t, http.StatusBadRequest, confirm("/labels/"+id.String()+"/confirm", `{}`).Code)
	require.Equal(t, http.StatusNotFound, confirm("/labels/"+uuid.NewString()+"/confirm", `{"subtype":"winter_rose"}`).Code)

	store.updateErr = errors.New("db down")
	require.Equal(t, http.StatusInternalServerError, confirm("/labels/"+id.String()+"/confirm", `{"subtype":"winter_rose"}`).Code)
}
