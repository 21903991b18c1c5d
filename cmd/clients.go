package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/drillops/survey-cli/internal/store"
	"github.com/drillops/survey-cli/pkg/dirsurvey"
)

// initClient builds the extrapolation API client from configuration. With a
// refresh token configured the client renews its access token on 401;
// otherwise a 401 is terminal.
func initClient() (dirsurvey.Client, error) {
	if err := cfg.Validate("api"); err != nil {
		return nil, err
	}

	hc := &http.Client{Timeout: time.Duration(cfg.API.TimeoutSecs) * time.Second}

	var tokens dirsurvey.TokenSource
	if cfg.API.RefreshToken != "" {
		tokens = dirsurvey.NewRefreshableToken(cfg.API.Token,
			dirsurvey.RefreshEndpoint(hc, cfg.API.BaseURL, cfg.API.RefreshToken))
	} else {
		tokens = dirsurvey.StaticToken(cfg.API.Token)
	}

	return dirsurvey.NewClient(tokens,
		dirsurvey.WithBaseURL(cfg.API.BaseURL),
		dirsurvey.WithHTTPClient(hc),
		dirsurvey.WithRateLimit(cfg.API.RateLimit),
	), nil
}

// initStore opens the local calculation history backend.
func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}

	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.Path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
