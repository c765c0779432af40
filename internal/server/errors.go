package server

import "net/http"

// fieldError is one validation failure on an incoming request.
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// validationResponse is the 422 body returned for malformed requests.
type validationResponse struct {
	Detail []fieldError `json:"detail"`
	Error  string       `json:"error"`
	Path   string       `json:"path"`
}

func writeValidationErrors(w http.ResponseWriter, path string, verrs []fieldError) {
	writeJSON(w, http.StatusUnprocessableEntity, validationResponse{
		Detail: verrs,
		Error:  "Validation Error",
		Path:   path,
	})
}
