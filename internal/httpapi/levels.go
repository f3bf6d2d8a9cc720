package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"levelhub/internal/app/catalog"
)

func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	sort := catalog.Resolve(query.Get("sortBy"), query.Get("sortDir"), query.Get("filter"))
	page := catalog.ResolvePage(query.Get("page"))

	result, err := s.catalog.Browse(r.Context(), s.caller(r), sort, page)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	reviewPage := catalog.ResolvePage(r.URL.Query().Get("page"))

	detail, err := s.catalog.Level(r.Context(), s.caller(r), id, reviewPage)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleRandomLevel(w http.ResponseWriter, r *http.Request) {
	id, err := s.catalog.RandomLevelID(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/api/v1/levels/%d", id), http.StatusFound)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
