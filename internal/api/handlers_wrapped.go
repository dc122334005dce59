package api

import (
	"net/http"
	"strconv"
)

// handleGetWrapped handles GET /api/wrapped?address=...&year=...
func (s *Server) handleGetWrapped(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "address query parameter is required", nil)
		return
	}

	// Year is optional; the service falls back to its configured target year.
	year := 0
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		parsed, err := strconv.Atoi(yearStr)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "year must be a number", map[string]interface{}{
				"year": yearStr,
			})
			return
		}
		year = parsed
	}

	result, err := s.wrappedService.ComputeWrapped(r.Context(), address, year)
	if err != nil {
		status, code, message := mapServiceError(err)
		respondError(w, status, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
