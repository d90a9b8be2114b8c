package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"stylecore/config"
	"stylecore/css"
	"stylecore/state"
)

func runParse(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	if cmd.Args().Len() == 0 {
		return fmt.Errorf("no stylesheets to parse")
	}
	origin, err := css.ParseOrigin(cmd.String("origin"))
	if err != nil {
		return fmt.Errorf("unable to use origin: %w", err)
	}
	if base := cmd.String("base-url"); base != "" {
		env.Cfg.Parser.BaseURL = base
	}
	dir := cmd.String("output")
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("unable to create output directory '%s': %w", dir, err)
		}
	}

	var problems error
	for _, name := range cmd.Args().Slice() {
		if err := ctx.Err(); err != nil {
			return err
		}
		sheet, err := loadStylesheet(env, name, origin)
		if err != nil {
			return err
		}
		problems = multierr.Append(problems, diagnosticsError(name, sheet))
		if cmd.Bool("stats") {
			env.Log.Info("Stylesheet parsed", zap.String("file", name), zap.Any("stats", sheet.Stats))
		}

		var data []byte
		if cmd.Bool("json") {
			if data, err = json.MarshalIndent(sheet, "", "  "); err != nil {
				return fmt.Errorf("unable to marshal '%s': %w", name, err)
			}
			data = append(data, '\n')
		} else {
			data = []byte(sheet.String())
		}

		fname := ""
		if dir != "" {
			ext := ".css"
			if cmd.Bool("json") {
				ext = ".json"
			}
			fname = filepath.Join(dir, config.OutputName(name, ext))
		}
		if err := writeOutput(env, fname, "Writing stylesheet", data, zap.String("source", name)); err != nil {
			return err
		}
	}
	if problems != nil && cmd.Bool("strict") {
		return fmt.Errorf("stylesheets are not clean: %w", problems)
	}
	return nil
}

// diagnosticsError combines diagnostics of one stylesheet, nil when it parsed
// cleanly.
func diagnosticsError(name string, sheet *css.Stylesheet) error {
	if err := sheet.Diagnostics.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// loadStylesheet reads, decodes and parses a stylesheet file, logs its
// diagnostics and stores everything in the debug report.
func loadStylesheet(env *state.LocalEnv, name string, origin css.Origin) (*css.Stylesheet, error) {
	data, err := readStylesheet(name)
	if err != nil {
		return nil, err
	}
	if name != "-" {
		if err := env.Rpt.StoreCopy("inputs/"+filepath.Base(name), name); err != nil {
			env.Log.Warn("Unable to store input in report", zap.String("file", name), zap.Error(err))
		}
	}
	return prepareStylesheet(env, data, origin, name), nil
}

// prepareStylesheet parses data and absolutizes url() references when a
// base URL is configured. Rewriting mutates the stylesheet, so such sheets
// bypass the shared cache.
func prepareStylesheet(env *state.LocalEnv, data []byte, origin css.Origin, source string) *css.Stylesheet {
	var sheet *css.Stylesheet
	base, err := url.Parse(env.Cfg.Parser.BaseURL)
	if env.Cfg.Parser.BaseURL == "" || err != nil {
		sheet = env.Stylesheet(data, origin, source)
	} else {
		sheet = css.NewParser(env.Log, env.Cfg.Parser.Options(origin)).Parse(data, source)
		sheet.RewriteURLs(func(ref string) string {
			u, err := url.Parse(ref)
			if err != nil {
				return ref
			}
			return base.ResolveReference(u).String()
		})
	}

	for _, d := range sheet.Diagnostics {
		env.Log.Warn("Stylesheet diagnostic",
			zap.String("file", source),
			zap.Stringer("kind", d.Kind),
			zap.Int("line", d.Line),
			zap.String("context", d.Context),
			zap.String("message", d.Message))
	}
	if env.Rpt != nil {
		env.Rpt.StoreData("parsed/"+filepath.Base(source), []byte(sheet.String()))
		if len(sheet.Diagnostics) > 0 {
			if data, err := json.MarshalIndent(sheet.Diagnostics, "", "  "); err == nil {
				env.Rpt.StoreData("diagnostics/"+filepath.Base(source)+".json", data)
			}
		}
	}
	return sheet
}
