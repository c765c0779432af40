package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dermage/skin-analysis-api/internal/analysis"
	"github.com/dermage/skin-analysis-api/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeAnalyzer struct {
	prof   model.SkinProfile
	images []model.ImagePayload
	result *model.AnalysisResult
	err    error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, prof model.SkinProfile, images []model.ImagePayload) (*model.AnalysisResult, error) {
	f.prof = prof
	f.images = images
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// pngBytes carries the PNG signature so content sniffing reports image/png.
var pngBytes = []byte("\x89PNG\r\n\x1a\n0000000000")

type formPart struct {
	field    string
	filename string
	body     []byte
}

func multipartRequest(t *testing.T, fields map[string]string, files []formPart) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		w, err := mw.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = w.Write(f.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/analyses", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func validFields() map[string]string {
	return map[string]string{
		"questions": `[{"question":"Como esta sua pele?","answer":"Muito ressecada"}]`,
	}
}

func TestHealth(t *testing.T) {
	srv := New(&fakeAnalyzer{}, 25)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCreateAnalysis_Success(t *testing.T) {
	fake := &fakeAnalyzer{result: &model.AnalysisResult{
		SkinType: model.SkinDry,
		Concerns: "pele com tendencia ao ressecamento",
	}}
	srv := New(fake, 25)

	fields := validFields()
	fields["age"] = "34"
	fields["skin_type"] = "seca"
	req := multipartRequest(t, fields, []formPart{
		{field: "images", filename: "face.png", body: pngBytes},
	})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got model.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, model.SkinDry, got.SkinType)

	require.NotNil(t, fake.prof.Age)
	assert.Equal(t, 34, *fake.prof.Age)
	assert.Equal(t, "seca", fake.prof.SkinType)
	require.Len(t, fake.images, 1)
	assert.Equal(t, "image/png", fake.images[0].MediaType)
}

func TestCreateAnalysis_MissingQuestionsAndImages(t *testing.T) {
	srv := New(&fakeAnalyzer{}, 25)
	req := multipartRequest(t, map[string]string{}, nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp validationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Validation Error", resp.Error)
	assert.Equal(t, "/v1/analyses", resp.Path)

	fields := make([]string, 0, len(resp.Detail))
	for _, d := range resp.Detail {
		fields = append(fields, d.Field)
	}
	assert.Contains(t, fields, "questions")
	assert.Contains(t, fields, "images")
}

func TestCreateAnalysis_RejectsNonImageUpload(t *testing.T) {
	srv := New(&fakeAnalyzer{}, 25)
	req := multipartRequest(t, validFields(), []formPart{
		{field: "images", filename: "notes.txt", body: []byte("plain text, not an image")},
	})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp validationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Detail, 1)
	assert.Equal(t, "images.0", resp.Detail[0].Field)
	assert.Equal(t, "invalid", resp.Detail[0].Type)
}

func TestCreateAnalysis_InvalidAge(t *testing.T) {
	srv := New(&fakeAnalyzer{}, 25)
	fields := validFields()
	fields["age"] = "quarenta"
	req := multipartRequest(t, fields, []formPart{
		{field: "images", filename: "face.png", body: pngBytes},
	})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp validationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Detail, 1)
	assert.Equal(t, "age", resp.Detail[0].Field)
}

func TestCreateAnalysis_QuotaMapsTo429(t *testing.T) {
	fake := &fakeAnalyzer{err: &analysis.QuotaExceededError{Cause: errors.New("rate limited")}}
	srv := New(fake, 25)
	req := multipartRequest(t, validFields(), []formPart{
		{field: "images", filename: "face.png", body: pngBytes},
	})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "temporarily unavailable")
}

func TestCreateAnalysis_FailureMapsTo500(t *testing.T) {
	fake := &fakeAnalyzer{err: &analysis.FailedError{Cause: errors.New("model returned garbage")}}
	srv := New(fake, 25)
	req := multipartRequest(t, validFields(), []formPart{
		{field: "images", filename: "face.png", body: pngBytes},
	})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"analysis failed"}`, rec.Body.String())
}

func TestRecommendationPreview(t *testing.T) {
	srv := New(&fakeAnalyzer{}, 25)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/v1/recommendation-preview?text=Tenho+52+anos+e+quero+uma+rotina+completa", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		AgeGroup       int    `json:"age_group"`
		AgeDescription string `json:"age_description"`
		RoutineType    string `json:"routine_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int(model.AgeOver45), got.AgeGroup)
	assert.Equal(t, string(model.RoutineComplete), got.RoutineType)
}

func TestRecommendationPreview_MissingText(t *testing.T) {
	srv := New(&fakeAnalyzer{}, 25)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/recommendation-preview", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
