package main

import (
	"context"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"

	"levelhub/internal/logging"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		logging.SetGlobal(logging.New(logging.Config{}))
		log.Fatal().Err(err).Msg("load config")
	}

	logging.SetGlobal(logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stdout,
	}))

	db, err := openDatabase(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	handler, err := newHTTPHandler(cfg, db)
	if err != nil {
		log.Fatal().Err(err).Msg("wire services")
	}

	log.Info().Str("addr", cfg.Addr).Msg("listening")
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
