package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/pdfgrid/pdfgrid/decode"
	"github.com/pdfgrid/pdfgrid/internal/config"
	"github.com/pdfgrid/pdfgrid/layout"
	"github.com/pdfgrid/pdfgrid/model"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging builds the process logger from the configured level.
func setupLogging(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogging(cfg)

	if version != "dev" {
		cfg.Version = version
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("command failed", "command", cfg.Command, "file", cfg.File, "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	switch cfg.Command {
	case config.CommandValidate:
		return runValidate(cfg)
	case config.CommandText:
		return runText(cfg)
	case config.CommandDump:
		return runDump(cfg)
	case config.CommandRelayout:
		return runRelayout(cfg)
	default:
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
}

func runValidate(cfg *config.Config) error {
	pages, err := decode.Validate(cfg.File)
	if err != nil {
		return err
	}
	fmt.Printf("%s: valid, %d pages\n", cfg.File, pages)
	return nil
}

func runText(cfg *config.Config) error {
	doc, err := decode.Open(cfg.File)
	if err != nil {
		return err
	}
	defer doc.Close()

	text, err := doc.Text()
	if err != nil {
		return err
	}
	fmt.Print(text)
	return nil
}

func runDump(cfg *config.Config) error {
	return forEachPage(cfg, func(pageNum int, page *model.Container) error {
		fmt.Printf("==== page %d ====\n", pageNum)
		return decode.DumpStructure(os.Stdout, page)
	})
}

func runRelayout(cfg *config.Config) error {
	lcfg := layoutConfig(cfg.Tuning)
	return forEachPage(cfg, func(pageNum int, page *model.Container) error {
		groups, err := layout.Relayout(page, lcfg)
		if err != nil {
			return fmt.Errorf("page %d: %w", pageNum, err)
		}
		fmt.Printf("==== page %d ====\n", pageNum)
		for i, group := range groups {
			fmt.Printf("-- group %d --\n", i+1)
			for _, line := range group.Lines {
				for j, block := range line.Blocks {
					if j > 0 {
						fmt.Print(" | ")
					}
					fmt.Print(block.Text)
				}
				fmt.Println()
			}
		}
		return nil
	})
}

// layoutConfig maps tuning overrides onto a layout configuration, leaving
// zero values to the library defaults.
func layoutConfig(t config.Tuning) layout.Config {
	cfg := layout.Config{GroupGapFactor: t.GroupGapFactor}
	if t.WidthFactor > 0 {
		cfg.MergeText = layout.DefaultTextMerger(t.WidthFactor)
	}
	if t.SizeDiffFactor > 0 || t.MinYDiff > 0 || t.BoldYFactor > 0 {
		sizeDiff := orDefault(t.SizeDiffFactor, layout.DefaultSizeDiffFactor)
		minY := orDefault(t.MinYDiff, layout.DefaultMinYDiff)
		boldY := orDefault(t.BoldYFactor, layout.DefaultBoldYFactor)
		cfg.GroupLine = layout.DefaultLineGrouper(sizeDiff, minY, boldY)
	}
	return cfg
}

func orDefault(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

// forEachPage decodes the configured file and calls fn on the selected
// page, or on every page when none was selected.
func forEachPage(cfg *config.Config, fn func(int, *model.Container) error) error {
	doc, err := decode.Open(cfg.File)
	if err != nil {
		return err
	}
	defer doc.Close()

	first, last := 1, doc.NumPages()
	if cfg.Page > 0 {
		first, last = cfg.Page, cfg.Page
	}
	for n := first; n <= last; n++ {
		page, err := doc.Page(n)
		if err != nil {
			return err
		}
		if err := fn(n, page); err != nil {
			return err
		}
	}
	return nil
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("pdfgrid\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
