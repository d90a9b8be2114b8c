// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"

	"stylecore/cascade"
	"stylecore/config"
	"stylecore/css"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// shared by parse and style subcommands
	Cache            *cascade.Cache
	DefaultUserAgent []byte

	start         time.Time
	restoreStdLog func()
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

// Stylesheet parses data with the configured limits, going through the
// stylesheet cache when it is enabled.
func (e *LocalEnv) Stylesheet(data []byte, origin css.Origin, source string) *css.Stylesheet {
	opts := e.Cfg.Parser.Options(origin)
	if e.Cache != nil {
		return e.Cache.Stylesheet(e.Log, data, opts, source)
	}
	return css.NewParser(e.Log, opts).Parse(data, source)
}

// Resolver returns a cascade resolver for the configured viewport.
func (e *LocalEnv) Resolver(sheets ...*css.Stylesheet) *cascade.Resolver {
	r := cascade.NewResolver(e.Log, e.Cfg.Viewport.Media(), sheets...).
		WithDefaultFontSize(e.Cfg.Viewport.RootFontSize)
	if e.Cache != nil {
		r = r.WithCache(e.Cache)
	}
	return r
}

// TreeOptions returns cascade options from configuration.
func (e *LocalEnv) TreeOptions() cascade.TreeOptions {
	return cascade.TreeOptions{
		Workers:        e.Cfg.Cascade.Workers,
		PseudoElements: e.Cfg.Cascade.PseudoElements,
	}
}
