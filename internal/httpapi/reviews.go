package httpapi

import (
	"net/http"

	"levelhub/internal/app/reviews"
)

func (s *Server) handlePutReview(w http.ResponseWriter, r *http.Request) {
	caller := s.caller(r)
	if caller.Anonymous() {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}

	var sub reviews.Submission
	if err := decodeJSON(r, &sub); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	review, err := s.reviews.Submit(r.Context(), caller.ID, id, sub)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, review)
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	caller := s.caller(r)
	if caller.Anonymous() {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}

	if err := s.reviews.Delete(r.Context(), caller.ID, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
