package main

import (
	"database/sql"
	"net/http"
	"time"

	"levelhub/internal/app/catalog"
	"levelhub/internal/app/downloads"
	"levelhub/internal/app/reviews"
	"levelhub/internal/app/users"
	"levelhub/internal/auth"
	"levelhub/internal/blob"
	"levelhub/internal/http/middleware"
	"levelhub/internal/httpapi"
	"levelhub/internal/store"
	"levelhub/internal/tokens"
)

func newHTTPHandler(cfg Config, db *sql.DB) (http.Handler, error) {
	dataStore := store.New(db)

	tokenMgr, err := auth.NewTokenManager(cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		return nil, err
	}
	codec, err := tokens.NewCodec(cfg.AssetKey)
	if err != nil {
		return nil, err
	}

	userSvc := users.New(dataStore, tokenMgr)
	catalogSvc := catalog.New(dataStore, codec)
	reviewSvc := reviews.New(dataStore)
	downloadSvc := downloads.New(codec, dataStore, blob.NewFS(cfg.AssetsDir))

	handler := httpapi.New(userSvc, catalogSvc, reviewSvc, downloadSvc, tokenMgr).Routes()

	wrap := []func(http.Handler) http.Handler{
		middleware.CORS(cfg.AllowedOrigins),
		middleware.RequestLogging(),
		middleware.Recovery(),
	}
	for i := len(wrap) - 1; i >= 0; i-- {
		handler = wrap[i](handler)
	}

	return handler, nil
}
