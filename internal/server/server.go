package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/k11v/sitebuild/internal/build"
	"github.com/k11v/sitebuild/internal/content"
)

type Launcher interface {
	Trigger(ctx context.Context, triggeredBy string) (*build.TriggerResult, error)
}

type Ledger interface {
	Current(ctx context.Context) (*build.Build, error)
	Get(ctx context.Context, params *build.LedgerGetParams) (*build.Build, error)
	List(ctx context.Context, params *build.LedgerListParams) (*build.LedgerListResult, error)
}

type ContentStore interface {
	BeginFunc(ctx context.Context, f func(tx *content.Tx) error) error
	SiteInfo(ctx context.Context) (*content.SiteInfo, error)
}

type NewParams struct {
	Config      *Config      // required
	Development bool         // enables swagger
	Log         *slog.Logger // required
	Launcher    Launcher     // required
	Ledger      Ledger       // required
	Content     ContentStore // optional, content routes are skipped when nil
	Metrics     http.Handler // optional
}

// New returns a new HTTP server.
// It should be started with http.Server's ListenAndServe.
func New(params *NewParams) *http.Server {
	cfg := params.Config
	addr := net.JoinHostPort(cfg.host(), strconv.Itoa(cfg.port()))

	subLogger := params.Log.With("component", "server")
	subLogLogger := slog.NewLogLogger(subLogger.Handler(), slog.LevelError)

	h := newHandler(&handler{
		log:      subLogger,
		launcher: params.Launcher,
		ledger:   params.Ledger,
		content:  params.Content,
		limiter:  rate.NewLimiter(rate.Every(cfg.triggerInterval()), cfg.triggerBurst()),
	}, params.Development, params.Metrics)

	return &http.Server{
		Addr:              addr,
		ErrorLog:          subLogLogger,
		Handler:           withCORS(cfg.allowedOrigins(), h),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
