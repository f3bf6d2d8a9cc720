// Package httpapi wires HTTP handlers to the application services.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"levelhub/internal/app/catalog"
	"levelhub/internal/app/downloads"
	"levelhub/internal/app/reviews"
	"levelhub/internal/app/users"
	"levelhub/internal/auth"
	"levelhub/internal/store"
)

// UserService captures the account operations needed by the HTTP handlers.
type UserService interface {
	Signup(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (string, error)
}

// CatalogService exposes level browsing and detail reads.
type CatalogService interface {
	Browse(ctx context.Context, caller catalog.Caller, sort catalog.SortDescriptor, page int) (catalog.BrowseResult, error)
	Level(ctx context.Context, caller catalog.Caller, id int64, reviewPage int) (catalog.LevelDetail, error)
	RandomLevelID(ctx context.Context) (int64, error)
}

// ReviewService coordinates review mutations.
type ReviewService interface {
	Submit(ctx context.Context, callerID, levelID int64, sub reviews.Submission) (store.Review, error)
	Delete(ctx context.Context, callerID, levelID int64) error
}

// DownloadService resolves asset tokens to binary content.
type DownloadService interface {
	Resolve(ctx context.Context, token string) (downloads.Download, error)
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	users     UserService
	catalog   CatalogService
	reviews   ReviewService
	downloads DownloadService
	tokens    *auth.TokenManager
}

// New configures a Server over the given services. The token manager is used
// only to read bearer tokens; issuing stays with the user service.
func New(userSvc UserService, catalogSvc CatalogService, reviewSvc ReviewService, downloadSvc DownloadService, tokens *auth.TokenManager) *Server {
	return &Server{
		users:     userSvc,
		catalog:   catalogSvc,
		reviews:   reviewSvc,
		downloads: downloadSvc,
		tokens:    tokens,
	}
}

// Routes exposes the HTTP handlers.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /api/v1/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	mux.HandleFunc("GET /api/v1/levels", s.handleListLevels)
	mux.HandleFunc("GET /api/v1/levels/random", s.handleRandomLevel)
	mux.HandleFunc("GET /api/v1/levels/{id}", s.handleLevel)
	mux.HandleFunc("PUT /api/v1/levels/{id}/review", s.handlePutReview)
	mux.HandleFunc("DELETE /api/v1/levels/{id}/review", s.handleDeleteReview)

	mux.HandleFunc("GET /download/{token}", s.handleDownload)

	return mux
}

type errorResponse struct {
	Error string `json:"error"`
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// caller resolves the requester's identity from the Authorization header.
// Absent or invalid tokens yield the anonymous caller; browsing never
// requires an account.
func (s *Server) caller(r *http.Request) catalog.Caller {
	token := parseBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return catalog.Caller{}
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return catalog.Caller{}
	}
	return catalog.Caller{ID: claims.UserID, Name: claims.Username}
}

func parseBearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// writeError maps service errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, store.ErrLevelNotFound),
		errors.Is(err, store.ErrReviewNotFound),
		errors.Is(err, downloads.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, store.ErrUserExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "username already taken"})
	case errors.Is(err, users.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.As(err, &validationErrs):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
