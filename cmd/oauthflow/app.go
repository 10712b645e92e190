package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-oauth-flows/correlation"
	"github.com/jrsteele09/go-oauth-flows/correlation/boltstore"
	"github.com/jrsteele09/go-oauth-flows/correlation/memstore"
	"github.com/jrsteele09/go-oauth-flows/correlation/redisstore"
	"github.com/jrsteele09/go-oauth-flows/flows"
	"github.com/jrsteele09/go-oauth-flows/flows/authcode"
	"github.com/jrsteele09/go-oauth-flows/flows/direct"
	"github.com/jrsteele09/go-oauth-flows/flows/implicit"
	"github.com/jrsteele09/go-oauth-flows/internal/config"
	apperrors "github.com/jrsteele09/go-oauth-flows/internal/errors"
	"github.com/jrsteele09/go-oauth-flows/internal/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app is everything a command needs, built from the configuration.
type app struct {
	config  config.Config
	logger  zerolog.Logger
	store   correlation.Store
	metrics *metrics.Manager
	router  *flows.Router
	client  *http.Client
	closers []io.Closer
}

func newApp(ctx context.Context, cfg config.Config, out io.Writer) (*app, error) {
	logger, err := newLogger(cfg, out)
	if err != nil {
		return nil, err
	}

	a := &app{config: cfg, logger: logger, metrics: metrics.New()}
	settings, err := config.FlowSettings(cfg)
	if err != nil {
		return nil, apperrors.Wrapf(err, "flow settings")
	}
	a.client = &http.Client{Timeout: settings.TokenRequestTimeout}

	if a.store, err = a.openStore(ctx); err != nil {
		return nil, err
	}

	executor := flows.NewHTTPExecutor(a.client, settings.TokenRequestTimeout)
	a.router, err = flows.NewRouter(a.store, []flows.Descriptor{
		authcode.New(settings, a.store, executor, authcode.WithLogger(logger)),
		implicit.New(settings, a.store, implicit.WithLogger(logger)),
		direct.NewClientCredentials(settings, executor.Client()),
		direct.NewPassword(settings, executor.Client()),
	}, flows.WithLogger(logger), flows.WithMetrics(a.metrics))
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) (correlation.Store, error) {
	switch a.config.GetStore() {
	case config.StoreMemory:
		return memstore.New(), nil

	case config.StoreBolt:
		if err := os.MkdirAll(a.config.GetDataFolder(), 0o700); err != nil {
			return nil, apperrors.Wrapf(err, "create data folder %s", a.config.GetDataFolder())
		}
		store, err := boltstore.Open(a.config.GetDataFolder())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		return store, nil

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     a.config.GetRedisAddr(),
			Password: a.config.GetRedisPassword(),
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, apperrors.Wrapf(err, "connect to redis at %s", a.config.GetRedisAddr())
		}
		a.closers = append(a.closers, client)
		return redisstore.New(client,
			redisstore.WithPrefix(a.config.GetRedisPrefix()),
			redisstore.WithTTL(a.config.GetCorrelationTTL()),
		), nil
	}
	return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownStore, a.config.GetStore())
}

// Close releases the store backends.
func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Err(err).Msg("Failed to close store")
		}
	}
	a.closers = nil
}

// newLogger writes human readable output in DEV and JSON elsewhere. The --log-level flag
// wins over LOG_LEVEL.
func newLogger(cfg config.Config, out io.Writer) (zerolog.Logger, error) {
	levelName := cfg.GetLogLevel()
	if logLevel != "" {
		levelName = logLevel
	}
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("%w: log level %q", apperrors.ErrInvalidConfig, levelName)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.GetEnv() == config.EnvDev {
		out = zerolog.ConsoleWriter{Out: out}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

func displayAppname(out io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(out, myFigure.String())
}
