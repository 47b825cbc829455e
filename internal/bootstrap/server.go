package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Domenick1991/farequote/api"
	"github.com/Domenick1991/farequote/config"
	"github.com/Domenick1991/farequote/internal/metrics"
	"github.com/Domenick1991/farequote/internal/middleware"
	"github.com/Domenick1991/farequote/internal/service/quotes"
)

type Deps struct {
	Quotes   quotes.QuoteUseCase
	DB       api.Pinger
	Logger   *zap.SugaredLogger
	Metrics  *metrics.Registry
	Gatherer prometheus.Gatherer
}

// Run serves HTTP until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, deps Deps) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           NewRouter(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		deps.Logger.Infow("http server listening", "address", cfg.HTTP.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Log.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		router.Use(middleware.Metrics(deps.Metrics))
	}

	api.NewHealthHandler(deps.DB).Register(router)
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
	}
	v1 := router.Group("/api/v1", middleware.RateLimit(limiter), middleware.Timeout(cfg.HTTP.RequestTimeout()))
	api.NewQuoteHandler(deps.Quotes, deps.Logger).Register(v1.Group("/quotes"))

	return router
}
