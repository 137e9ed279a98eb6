package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Command constants
	CommandValidate = "validate"
	CommandText     = "text"
	CommandDump     = "dump"
	CommandRelayout = "relayout"

	// Default values
	DefaultLogLevel = "info"
)

// Tuning holds the empirically tuned layout reconstruction parameters.
// Zero values are replaced by the library defaults.
type Tuning struct {
	WidthFactor    float64 // block merge spacing, in glyph widths
	SizeDiffFactor float64 // line merge font size tolerance
	MinYDiff       float64 // line merge baseline tolerance floor
	BoldYFactor    float64 // baseline tolerance multiplier for bold mismatch
	GroupGapFactor float64 // column group vertical gap, in font sizes
}

// Config holds all configuration for the pdfgrid command.
type Config struct {
	// Command is the requested operation: validate, text, dump or
	// relayout.
	Command string

	// File is the PDF file to process.
	File string

	// Page restricts dump and relayout output to one page (1-based).
	// 0 processes every page.
	Page int

	// Application configuration
	Version  string
	LogLevel string
	Tuning   Tuning
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Command:  CommandDump,
		Page:     0,
		Version:  "1.0.0",
		LogLevel: DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	if args := pflag.Args(); len(args) > 0 {
		cfg.File = args[0]
	}
	if cfg.File != "" {
		if expandedPath, err := filepath.Abs(cfg.File); err == nil {
			cfg.File = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("PDFGRID")
	viper.AutomaticEnv()

	viper.SetDefault("command", cfg.Command)
	viper.SetDefault("page", cfg.Page)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("widthfactor", cfg.Tuning.WidthFactor)
	viper.SetDefault("sizedifffactor", cfg.Tuning.SizeDiffFactor)
	viper.SetDefault("minydiff", cfg.Tuning.MinYDiff)
	viper.SetDefault("boldyfactor", cfg.Tuning.BoldYFactor)
	viper.SetDefault("groupgapfactor", cfg.Tuning.GroupGapFactor)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("command", cfg.Command, "Operation: 'validate', 'text', 'dump' or 'relayout'")
	pflag.Int("page", cfg.Page, "Page to process (1-based), 0 for all pages")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Float64("widthfactor", cfg.Tuning.WidthFactor, "Block merge spacing tolerance, in glyph widths (0 = default)")
	pflag.Float64("sizedifffactor", cfg.Tuning.SizeDiffFactor, "Line merge font size tolerance factor (0 = default)")
	pflag.Float64("minydiff", cfg.Tuning.MinYDiff, "Line merge baseline tolerance floor (0 = default)")
	pflag.Float64("boldyfactor", cfg.Tuning.BoldYFactor, "Baseline tolerance multiplier on bold mismatch (0 = default)")
	pflag.Float64("groupgapfactor", cfg.Tuning.GroupGapFactor, "Column group vertical gap, in font sizes (0 = default)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("command", pflag.Lookup("command"))
	_ = viper.BindPFlag("page", pflag.Lookup("page"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("widthfactor", pflag.Lookup("widthfactor"))
	_ = viper.BindPFlag("sizedifffactor", pflag.Lookup("sizedifffactor"))
	_ = viper.BindPFlag("minydiff", pflag.Lookup("minydiff"))
	_ = viper.BindPFlag("boldyfactor", pflag.Lookup("boldyfactor"))
	_ = viper.BindPFlag("groupgapfactor", pflag.Lookup("groupgapfactor"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s: [options] <file.pdf>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\npdfgrid - logical layout reconstruction for PDF documents\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --command=dump invoice.pdf              # dump the decoded node tree\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --command=relayout --page=2 invoice.pdf # reconstruct page 2\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --command=validate invoice.pdf          # structural validation\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  PDFGRID_COMMAND     Operation to run\n")
		fmt.Fprintf(os.Stderr, "  PDFGRID_PAGE        Page to process\n")
		fmt.Fprintf(os.Stderr, "  PDFGRID_LOGLEVEL    Log level\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Command = viper.GetString("command")
	cfg.Page = viper.GetInt("page")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.Tuning.WidthFactor = viper.GetFloat64("widthfactor")
	cfg.Tuning.SizeDiffFactor = viper.GetFloat64("sizedifffactor")
	cfg.Tuning.MinYDiff = viper.GetFloat64("minydiff")
	cfg.Tuning.BoldYFactor = viper.GetFloat64("boldyfactor")
	cfg.Tuning.GroupGapFactor = viper.GetFloat64("groupgapfactor")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Command {
	case CommandValidate, CommandText, CommandDump, CommandRelayout:
	default:
		return fmt.Errorf("invalid command: %s (must be one of: validate, text, dump, relayout)", c.Command)
	}

	if c.File == "" {
		return errors.New("a PDF file argument is required")
	}
	if info, err := os.Stat(c.File); err != nil {
		return fmt.Errorf("cannot access %s: %w", c.File, err)
	} else if info.IsDir() {
		return fmt.Errorf("%s is a directory", c.File)
	}

	if c.Page < 0 {
		return errors.New("page cannot be negative")
	}

	for name, v := range map[string]float64{
		"widthfactor":    c.Tuning.WidthFactor,
		"sizedifffactor": c.Tuning.SizeDiffFactor,
		"minydiff":       c.Tuning.MinYDiff,
		"boldyfactor":    c.Tuning.BoldYFactor,
		"groupgapfactor": c.Tuning.GroupGapFactor,
	} {
		if v < 0 {
			return fmt.Errorf("%s cannot be negative", name)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}
