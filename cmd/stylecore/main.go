package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"stylecore/cascade"
	"stylecore/config"
	"stylecore/misc"
	"stylecore/state"
)

// initializeAppContext prepares application context before command execution
// but after command line has been parsed
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		if len(configFile) > 0 {
			if data, err := config.Dump(env.Cfg); err == nil {
				env.Rpt.StoreData("config/"+filepath.Base(configFile), data)
			}
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	if env.Cfg.Cascade.Cache {
		env.Cache = cascade.NewCache()
	}

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", misc.GetVersion()), zap.String("runtime", runtime.Version()), zap.String("hash", misc.GetGitHash()))

	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(configFile) == 0 {
		env.Log.Debug("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		fields := []zap.Field{zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice())}
		if env.Cache != nil {
			st := env.Cache.Stats()
			fields = append(fields, zap.Int("cached sheets", st.Stylesheets), zap.Int("cached styles", st.Styles),
				zap.Int64("hits", st.Hits), zap.Int64("misses", st.Misses))
		}
		env.Log.Debug("Program ended", fields...)
	}

	env.RestoreStdLog()

	// log is synced now and result can be used in report if necessary, errors
	// must be reported directly to stderr from now on
	if env.Rpt != nil {
		if er := env.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
	}
	// reporting is closed now - remove empty panic file if any
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := filepath.Join(filepath.Dir(env.Cfg.Logging.FileLogger.Destination), misc.GetAppName()+"-panic.log")
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
			}
		}
	}
	return
}

// Subcommands return regular errors, they are logged here before the
// application context is destroyed.
var errWasHandled bool

func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := state.EnvFromContext(ctx)
	if env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

func main() {
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "CSS parsing and cascade inspector",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:         "parse",
				Usage:        "Parses stylesheet(s) and prints normalized CSS or JSON",
				OnUsageError: usageErrorHandler,
				Action:       runParse,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "output parsed stylesheet as JSON"},
					&cli.BoolFlag{Name: "stats", Usage: "log stylesheet statistics"},
					&cli.BoolFlag{Name: "strict", Usage: "fail when any stylesheet has diagnostics"},
					&cli.StringFlag{Name: "origin", Value: "author", Usage: "cascade origin `NAME` (user-agent, user, author)"},
					&cli.StringFlag{Name: "base-url", Usage: "resolve relative url() references against `URL`"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write results into `DIRECTORY` instead of STDOUT"},
				},
				ArgsUsage: "FILE...",
				CustomHelpTemplate: fmt.Sprintf(`%s
FILE:
    path to CSS file, "-" reads STDIN. Byte order marks and @charset rules are honored.
    Diagnostics are reported as warnings, parsing always produces best-effort result.
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "style",
				Usage:        "Computes styles for every element of an HTML document",
				OnUsageError: usageErrorHandler,
				Action:       runStyle,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "html", Required: true, Usage: "HTML document `FILE`"},
					&cli.StringSliceFlag{Name: "css", Usage: "author stylesheet `FILE`, may be repeated, applied after <style> elements"},
					&cli.StringSliceFlag{Name: "user", Usage: "user stylesheet `FILE`, may be repeated"},
					&cli.StringFlag{Name: "ua", Usage: "replace built-in user agent stylesheet with `FILE`"},
					&cli.FloatFlag{Name: "width", Usage: "viewport width in px, overrides configuration"},
					&cli.FloatFlag{Name: "height", Usage: "viewport height in px, overrides configuration"},
					&cli.StringFlag{Name: "format", Usage: "output `TYPE` (supported types: " + strings.Join(config.OutputFormatNames(), ", ") + ")"},
					&cli.StringFlag{Name: "template", Usage: "Go `TEMPLATE` executed for every element, implies --format template"},
					&cli.StringSliceFlag{Name: "property", Aliases: []string{"p"}, Usage: "show only `NAME`, may be repeated"},
					&cli.BoolFlag{Name: "render", Usage: "include box model, paint and stacking information"},
					&cli.StringSliceFlag{Name: "state", Usage: "pseudo-class state `SELECTOR:STATE` (e.g. a.nav:hover), may be repeated"},
				},
				ArgsUsage: "[DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s
DESTINATION:
    file name to write results to, if absent - STDOUT
`, cli.CommandHelpTemplate),
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values which is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
			},
		},
	}

	var err error
	// NOTE: os.Exit is called at the end of main to set exit code, make sure
	// there are no other deferred functions after that
	defer func() {
		stop()
		if err != nil {
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	var (
		data []byte
		err  error
		kind = "actual"
	)
	if cmd.Bool("default") {
		kind = "default"
		data, err = config.Prepare()
	} else {
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}
	return writeOutput(env, cmd.Args().Get(0), "Outputting configuration", data, zap.String("state", kind))
}

// writeOutput writes data into fname or to STDOUT when fname is empty.
func writeOutput(env *state.LocalEnv, fname, what string, data []byte, fields ...zap.Field) error {
	out := os.Stdout
	if len(fname) > 0 {
		f, err := os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer f.Close()
		out = f
	} else {
		fname = "STDOUT"
	}
	env.Log.Debug(what, append(fields, zap.String("file", fname))...)

	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("unable to write to '%s': %w", fname, err)
	}
	return nil
}
