package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"stylecore/cascade"
	"stylecore/config"
	"stylecore/css"
	"stylecore/dom"
	"stylecore/render"
	"stylecore/state"
)

func runStyle(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}
	if w := cmd.Float("width"); w > 0 {
		env.Cfg.Viewport.Width = w
	}
	if h := cmd.Float("height"); h > 0 {
		env.Cfg.Viewport.Height = h
	}
	out := env.Cfg.Output
	if f := cmd.String("format"); f != "" {
		format, err := config.ParseOutputFormat(f)
		if err != nil {
			return fmt.Errorf("unable to use output format: %w", err)
		}
		out.Format = format
	}
	if tmpl := cmd.String("template"); tmpl != "" {
		out.Format, out.Template = config.OutputFormatTemplate, tmpl
	}
	if props := cmd.StringSlice("property"); len(props) > 0 {
		out.Properties = props
	}

	htmlName := cmd.String("html")
	data, err := readInput(htmlName)
	if err != nil {
		return fmt.Errorf("unable to read document '%s': %w", htmlName, err)
	}
	if htmlName != "-" {
		if err := env.Rpt.StoreCopy("inputs/"+filepath.Base(htmlName), htmlName); err != nil {
			env.Log.Warn("Unable to store input in report", zap.String("file", htmlName), zap.Error(err))
		}
	}
	r, err := htmlReader(data)
	if err != nil {
		return err
	}
	tree, embedded, err := dom.FromHTML(r)
	if err != nil {
		return err
	}
	env.Log.Debug("Document loaded", zap.String("file", htmlName), zap.Int("elements", tree.Len()), zap.Int("style elements", len(embedded)))

	sheets, err := collectStylesheets(env, cmd, embedded)
	if err != nil {
		return err
	}
	states, err := parseStates(tree, cmd.StringSlice("state"))
	if err != nil {
		return err
	}

	opts := env.TreeOptions()
	opts.States = states
	styles, err := cascade.Tree(ctx, env.Resolver(sheets...), tree, opts)
	if err != nil {
		return fmt.Errorf("unable to compute styles: %w", err)
	}
	for _, d := range styles.Diagnostics() {
		env.Log.Warn("Cascade diagnostic", zap.Stringer("kind", d.Kind), zap.String("context", d.Context), zap.String("message", d.Message))
	}

	var rendered []render.RenderedElement
	if cmd.Bool("render") {
		rendered = render.RenderTree(tree, styles, render.Context{Media: env.Cfg.Viewport.Media()})
	}
	views := buildViews(tree, styles, rendered, opts.PseudoElements, out)

	var result []byte
	switch out.Format {
	case config.OutputFormatJSON:
		if result, err = json.MarshalIndent(views, "", "  "); err != nil {
			return fmt.Errorf("unable to marshal computed styles: %w", err)
		}
		result = append(result, '\n')
	case config.OutputFormatTemplate:
		if result, err = executeTemplate(out.Template, views); err != nil {
			return err
		}
	default:
		result = []byte(printTree(views))
	}
	env.Rpt.StoreData("styles.txt", result)
	return writeOutput(env, cmd.Args().Get(0), "Writing computed styles", result, zap.Stringer("format", out.Format))
}

// collectStylesheets returns stylesheets in cascade order: user agent, user,
// <style> elements in document order and finally --css files.
func collectStylesheets(env *state.LocalEnv, cmd *cli.Command, embedded []string) ([]*css.Stylesheet, error) {
	var sheets []*css.Stylesheet

	if ua := cmd.String("ua"); ua != "" {
		s, err := loadStylesheet(env, ua, css.OriginUserAgent)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, s)
	} else if !cmd.IsSet("ua") {
		sheets = append(sheets, prepareStylesheet(env, env.DefaultUserAgent, css.OriginUserAgent, "user-agent.css"))
	}
	for _, name := range cmd.StringSlice("user") {
		s, err := loadStylesheet(env, name, css.OriginUser)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, s)
	}
	for i, text := range embedded {
		sheets = append(sheets, prepareStylesheet(env, []byte(text), css.OriginAuthor, fmt.Sprintf("style-%d.css", i+1)))
	}
	for _, name := range cmd.StringSlice("css") {
		s, err := loadStylesheet(env, name, css.OriginAuthor)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, s)
	}
	return sheets, nil
}

var stateNames = map[string]dom.State{
	"hover":   dom.StateHover,
	"focus":   dom.StateFocus,
	"active":  dom.StateActive,
	"visited": dom.StateVisited,
}

// parseStates turns "selector:state" arguments into element states.
func parseStates(tree *dom.Tree, args []string) (dom.States, error) {
	if len(args) == 0 {
		return nil, nil
	}
	states := make(dom.States)
	for _, arg := range args {
		i := strings.LastIndexByte(arg, ':')
		if i < 0 {
			return nil, fmt.Errorf("state %q: expected SELECTOR:STATE", arg)
		}
		st, ok := stateNames[strings.ToLower(arg[i+1:])]
		if !ok {
			return nil, fmt.Errorf("state %q: unknown state %q", arg, arg[i+1:])
		}
		sel, err := css.ParseSelector(arg[:i])
		if err != nil {
			return nil, fmt.Errorf("state %q: %w", arg, err)
		}
		for id := range tree.Len() {
			if sel.Matches(tree, dom.NodeID(id)) {
				states[dom.NodeID(id)] |= st
			}
		}
	}
	return states, nil
}
