// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"cssblocks/cache"
	"cssblocks/config"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg   *config.Config
	Rpt   *config.Report
	Log   *zap.Logger
	Cache *cache.Cache // nil unless enabled in configuration

	// used by compile subcommand
	OutDir    string
	Overwrite bool

	start         time.Time
	restoreStdLog func()
}

func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// OpenCache opens compile cache when configuration asks for it.
func (e *LocalEnv) OpenCache() error {
	if e.Cfg == nil || !e.Cfg.Cache.Enable || e.Cache != nil {
		return nil
	}
	c, err := cache.Open(e.Cfg.Cache.Path, e.Log)
	if err != nil {
		return err
	}
	e.Cache = c
	return nil
}

// Close releases cache and finalizes debug report.
func (e *LocalEnv) Close() (err error) {
	if e.Cache != nil {
		err = multierr.Append(err, e.Cache.Close())
		e.Cache = nil
	}
	if e.Rpt != nil {
		err = multierr.Append(err, e.Rpt.Close())
		e.Rpt = nil
	}
	return err
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
