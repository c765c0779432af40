// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/dermage/skin-analysis-api/internal/analysis"
	"github.com/dermage/skin-analysis-api/internal/model"
	"github.com/dermage/skin-analysis-api/internal/profile"
)

// Analyzer runs one analysis request; the orchestrator implements it.
type Analyzer interface {
	Analyze(ctx context.Context, prof model.SkinProfile, images []model.ImagePayload) (*model.AnalysisResult, error)
}

// Server holds the HTTP surface and its collaborators.
type Server struct {
	analyzer      Analyzer
	maxUploadByte int64
}

// New creates a Server. maxUploadMB bounds the multipart request size.
func New(analyzer Analyzer, maxUploadMB int) *Server {
	if maxUploadMB <= 0 {
		maxUploadMB = 25
	}
	return &Server{
		analyzer:      analyzer,
		maxUploadByte: int64(maxUploadMB) << 20,
	}
}

// Router builds the chi router with CORS open to any origin, matching the
// public questionnaire frontend.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/v1/analyses", s.handleCreateAnalysis)
	r.Get("/v1/recommendation-preview", s.handleRecommendationPreview)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadByte)

	prof, images, verrs := decodeAnalysisRequest(r)
	if len(verrs) > 0 {
		writeValidationErrors(w, r.URL.Path, verrs)
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), prof, images)
	if err != nil {
		status := http.StatusInternalServerError
		if analysis.IsQuotaExceeded(err) {
			status = http.StatusTooManyRequests
		}
		zap.L().Error("analysis request failed",
			zap.Int("status", status),
			zap.Error(err),
		)
		writeJSON(w, status, map[string]string{"error": publicMessage(status)})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRecommendationPreview(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if text == "" {
		writeValidationErrors(w, r.URL.Path, []fieldError{{
			Field:   "text",
			Message: "query parameter is required",
			Type:    "missing",
		}})
		return
	}

	c := profile.Classify(text)
	writeJSON(w, http.StatusOK, map[string]any{
		"age_group":       int(c.AgeBracket),
		"age_description": c.AgeBracket.Description(),
		"routine_type":    c.Complexity,
	})
}

// decodeAnalysisRequest parses the multipart form: a "questions" JSON part,
// optional "age" and "skin_type" fields, and one or more "images" files.
func decodeAnalysisRequest(r *http.Request) (model.SkinProfile, []model.ImagePayload, []fieldError) {
	var verrs []fieldError

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return model.SkinProfile{}, nil, []fieldError{{
			Field:   "body",
			Message: "invalid multipart form: " + err.Error(),
			Type:    "invalid",
		}}
	}

	var prof model.SkinProfile

	questionsRaw := r.FormValue("questions")
	if questionsRaw == "" {
		verrs = append(verrs, fieldError{Field: "questions", Message: "field is required", Type: "missing"})
	} else if err := json.Unmarshal([]byte(questionsRaw), &prof.Questions); err != nil {
		verrs = append(verrs, fieldError{Field: "questions", Message: "must be a JSON array of {question, answer}", Type: "invalid"})
	} else if len(prof.Questions) == 0 {
		verrs = append(verrs, fieldError{Field: "questions", Message: "at least one question is required", Type: "invalid"})
	}

	if ageRaw := r.FormValue("age"); ageRaw != "" {
		var age int
		if err := json.Unmarshal([]byte(ageRaw), &age); err != nil || age <= 0 || age > 120 {
			verrs = append(verrs, fieldError{Field: "age", Message: "must be an integer between 1 and 120", Type: "invalid"})
		} else {
			prof.Age = &age
		}
	}

	prof.SkinType = r.FormValue("skin_type")

	images, imgErrs := decodeImages(r)
	verrs = append(verrs, imgErrs...)

	return prof, images, verrs
}

// allowedImageTypes are the media types the vision model accepts without
// conversion.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

func decodeImages(r *http.Request) ([]model.ImagePayload, []fieldError) {
	if r.MultipartForm == nil || len(r.MultipartForm.File["images"]) == 0 {
		return nil, []fieldError{{Field: "images", Message: "at least one image is required", Type: "missing"}}
	}

	var images []model.ImagePayload
	var verrs []fieldError
	for i, header := range r.MultipartForm.File["images"] {
		f, err := header.Open()
		if err != nil {
			verrs = append(verrs, fieldError{Field: imageField(i), Message: "could not read upload", Type: "invalid"})
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			verrs = append(verrs, fieldError{Field: imageField(i), Message: "could not read upload", Type: "invalid"})
			continue
		}

		mediaType := http.DetectContentType(data)
		if !allowedImageTypes[mediaType] {
			verrs = append(verrs, fieldError{
				Field:   imageField(i),
				Message: "unsupported image type " + mediaType,
				Type:    "invalid",
			})
			continue
		}
		images = append(images, model.ImagePayload{MediaType: mediaType, Data: data})
	}

	return images, verrs
}

func imageField(i int) string {
	return "images." + strconv.Itoa(i)
}

func publicMessage(status int) string {
	if status == http.StatusTooManyRequests {
		return "analysis temporarily unavailable, try again shortly"
	}
	return "analysis failed"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
