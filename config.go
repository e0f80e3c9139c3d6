package pdfclean

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format selects the kind of output produced for a cleaned document.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
)

// Config controls classification and output behavior.
type Config struct {
	// FootnoteSize is the rounded font size that marks footnote text (default: 10)
	FootnoteSize float64 `yaml:"footnote_size"`

	// BodySize is the rounded font size of body text and page numbers (default: 12)
	BodySize float64 `yaml:"body_size"`

	// FooterMargin is the distance in points from the page bottom that forms
	// the footer zone (default: 72, one inch)
	FooterMargin float64 `yaml:"footer_margin"`

	// SeparatorOverride keeps footnote-sized text that sits above the
	// footnote rule (default: true)
	SeparatorOverride bool `yaml:"separator_override"`

	// LegacyLineBreaks decides a line's newline from its last fragment only,
	// matching the output of the original text extraction (default: false)
	LegacyLineBreaks bool `yaml:"legacy_line_breaks"`

	// HorizontalEpsilon is the largest endpoint y difference, exclusive, for a
	// segment to count as horizontal (default: 1)
	HorizontalEpsilon float64 `yaml:"horizontal_epsilon"`

	// ThinRuleRectangles turns thin filled rectangles into rule segments (default: true)
	ThinRuleRectangles bool `yaml:"thin_rule_rectangles"`

	// BlockGapRatio is the baseline gap, relative to font size, that starts
	// a new block during extraction (default: 1.8)
	BlockGapRatio float64 `yaml:"block_gap_ratio"`

	// Format is the output kind (default: text)
	Format Format `yaml:"format"`

	// IncludePageBreaks adds "---" separators between pages in markdown output (default: true)
	IncludePageBreaks bool `yaml:"include_page_breaks"`

	// PageBreakMarker replaces the blank line after each page of text output
	// when non-empty
	PageBreakMarker string `yaml:"page_break_marker"`

	// LogLevel is a zerolog level name (default: info)
	LogLevel string `yaml:"log_level"`

	// EnableMetricsLogging logs processing time and statistics (default: false)
	EnableMetricsLogging bool `yaml:"enable_metrics_logging"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		FootnoteSize:       10.0,
		BodySize:           12.0,
		FooterMargin:       72,
		SeparatorOverride:  true,
		HorizontalEpsilon:  1.0,
		ThinRuleRectangles: true,
		BlockGapRatio:      1.8,
		Format:             FormatText,
		IncludePageBreaks:  true,
		LogLevel:           "info",
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.FootnoteSize <= 0:
		return configError("footnote size must be positive")
	case c.BodySize <= 0:
		return configError("body size must be positive")
	case c.FootnoteSize == c.BodySize:
		return configError("footnote size and body size must differ")
	case c.FooterMargin < 0:
		return configError("footer margin must not be negative")
	case c.HorizontalEpsilon <= 0:
		return configError("horizontal epsilon must be positive")
	case c.BlockGapRatio <= 0:
		return configError("block gap ratio must be positive")
	}

	switch c.Format {
	case FormatText, FormatMarkdown, FormatPDF:
	default:
		return configError("unknown output format %q", c.Format)
	}

	return nil
}

// LoadConfig reads a YAML file over DefaultConfig and validates the result.
// An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, wrapError(KindConfig, errors.Wrapf(err, "read config file %s", path))
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, wrapError(KindConfig, errors.Wrapf(err, "parse config file %s", path))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
