package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"stylecore/css"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	ParserConfig struct {
		MaxRules               int           `yaml:"max_rules" validate:"min=1"`
		MaxSelectorsPerRule    int           `yaml:"max_selectors_per_rule" validate:"min=1"`
		MaxDeclarationsPerRule int           `yaml:"max_declarations_per_rule" validate:"min=1"`
		MaxNestingDepth        int           `yaml:"max_nesting_depth" validate:"min=1,max=64"`
		TimeBudget             time.Duration `yaml:"time_budget" validate:"gte=0"`
		BaseURL                string        `yaml:"base_url,omitempty" validate:"omitempty,url"`
	}

	ViewportConfig struct {
		Width        float64 `yaml:"width" validate:"gt=0"`
		Height       float64 `yaml:"height" validate:"gt=0"`
		DPI          float64 `yaml:"dpi" validate:"gt=0"`
		RootFontSize float64 `yaml:"root_font_size" validate:"gt=0"`
		MediaType    string  `yaml:"media_type" validate:"oneof=screen print all speech"`
		ColorScheme  string  `yaml:"color_scheme" validate:"oneof=light dark"`
	}

	CascadeConfig struct {
		Workers             int      `yaml:"workers" validate:"gte=0"`
		Cache               bool     `yaml:"cache"`
		PseudoElements      []string `yaml:"pseudo_elements" validate:"dive,required"`
		UserAgentStylesheet string   `yaml:"user_agent_stylesheet,omitempty" sanitize:"assure_file_access"`
	}

	OutputConfig struct {
		Format        OutputFormat `yaml:"format"`
		Template      string       `yaml:"template" validate:"required_if=Format 2"`
		Properties    []string     `yaml:"properties"`
		ShowInherited bool         `yaml:"show_inherited"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Parser    ParserConfig   `yaml:"parser"`
		Viewport  ViewportConfig `yaml:"viewport"`
		Cascade   CascadeConfig  `yaml:"cascade"`
		Output    OutputConfig   `yaml:"output"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, template text is for the
	// style command, not for the configuration processor
	OutputTemplateFieldName TemplateFieldName = "template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputTemplateFieldName)),
)

// Options returns parser options for stylesheets of the given origin.
func (conf *ParserConfig) Options(origin css.Origin) css.ParseOptions {
	return css.ParseOptions{
		Origin:                 origin,
		BaseURL:                conf.BaseURL,
		MaxRules:               conf.MaxRules,
		MaxSelectorsPerRule:    conf.MaxSelectorsPerRule,
		MaxDeclarationsPerRule: conf.MaxDeclarationsPerRule,
		MaxNestingDepth:        conf.MaxNestingDepth,
		TimeBudget:             conf.TimeBudget,
	}
}

// Media returns the media context media queries are evaluated against.
func (conf *ViewportConfig) Media() css.MediaContext {
	return css.MediaContext{
		Width:       conf.Width,
		Height:      conf.Height,
		DPI:         conf.DPI,
		Type:        conf.MediaType,
		ColorScheme: conf.ColorScheme,
	}
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("failed to validate configuration: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to
// provide sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
