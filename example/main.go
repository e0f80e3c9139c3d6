package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/klippa-app/go-pdfium/webassembly"
	"github.com/urfave/cli/v3"

	"github.com/ivanvanderbyl/pdfclean"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("failed to load .env: %v", err)
	}

	cmd := &cli.Command{
		Name:  "pdfclean",
		Usage: "Extract the body text of a PDF without footnotes or page numbers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Input PDF file path",
				Required: true,
				Sources:  cli.EnvVars("PDFCLEAN_INPUT"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default: stdout, required for pdf)",
				Sources: cli.EnvVars("PDFCLEAN_OUTPUT"),
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, markdown or pdf",
				Sources: cli.EnvVars("PDFCLEAN_FORMAT"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				Sources: cli.EnvVars("PDFCLEAN_CONFIG"),
			},
			&cli.FloatFlag{
				Name:    "footnote-size",
				Usage:   "Font size of footnotes in points",
				Sources: cli.EnvVars("PDFCLEAN_FOOTNOTE_SIZE"),
			},
			&cli.FloatFlag{
				Name:    "body-size",
				Usage:   "Font size of body text and page numbers in points",
				Sources: cli.EnvVars("PDFCLEAN_BODY_SIZE"),
			},
			&cli.FloatFlag{
				Name:    "footer-margin",
				Usage:   "Height of the footer zone in points",
				Sources: cli.EnvVars("PDFCLEAN_FOOTER_MARGIN"),
			},
			&cli.BoolFlag{
				Name:    "separator-override",
				Usage:   "Keep footnote-sized text above the footnote rule",
				Value:   true,
				Sources: cli.EnvVars("PDFCLEAN_SEPARATOR_OVERRIDE"),
			},
			&cli.BoolFlag{
				Name:    "legacy-line-breaks",
				Usage:   "End a line only when its last fragment was kept",
				Sources: cli.EnvVars("PDFCLEAN_LEGACY_LINE_BREAKS"),
			},
			&cli.IntFlag{
				Name:  "start-page",
				Usage: "Start page number (0-indexed)",
				Value: -1,
			},
			&cli.IntFlag{
				Name:  "end-page",
				Usage: "End page number (0-indexed)",
				Value: -1,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("PDFCLEAN_LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "Log processing metrics",
			},
		},
		Action: cleanPDF,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadConfig layers flags and env vars over the YAML file and defaults.
func loadConfig(cmd *cli.Command) (pdfclean.Config, error) {
	config, err := pdfclean.LoadConfig(cmd.String("config"))
	if err != nil {
		return pdfclean.Config{}, err
	}

	if cmd.IsSet("format") {
		config.Format = pdfclean.Format(cmd.String("format"))
	}
	if cmd.IsSet("footnote-size") {
		config.FootnoteSize = cmd.Float("footnote-size")
	}
	if cmd.IsSet("body-size") {
		config.BodySize = cmd.Float("body-size")
	}
	if cmd.IsSet("footer-margin") {
		config.FooterMargin = cmd.Float("footer-margin")
	}
	if cmd.IsSet("separator-override") {
		config.SeparatorOverride = cmd.Bool("separator-override")
	}
	if cmd.IsSet("legacy-line-breaks") {
		config.LegacyLineBreaks = cmd.Bool("legacy-line-breaks")
	}
	if cmd.IsSet("log-level") {
		config.LogLevel = cmd.String("log-level")
	}
	if cmd.Bool("metrics") {
		config.EnableMetricsLogging = true
	}

	return config, config.Validate()
}

func cleanPDF(_ context.Context, cmd *cli.Command) error {
	inputPath := cmd.String("input")
	outputPath := cmd.String("output")
	startPage := cmd.Int("start-page")
	endPage := cmd.Int("end-page")

	config, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := pdfclean.NewLogger(os.Stderr, config.LogLevel)

	if config.Format == pdfclean.FormatPDF && outputPath == "" {
		return fmt.Errorf("an output path is required for pdf output")
	}

	// Initialise pdfium
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to initialise pdfium: %w", err)
	}
	defer pool.Close()

	instance, err := pool.GetInstance(time.Second * 30)
	if err != nil {
		return fmt.Errorf("failed to get pdfium instance: %w", err)
	}

	converter := pdfclean.NewConverterWithConfig(instance, config).WithLogger(logger)

	info, err := converter.GetDocumentInfo(inputPath)
	if err != nil {
		return fmt.Errorf("failed to get document info: %w", err)
	}

	logger.Info().Str("input", inputPath).Int("pages", info.PageCount).Msg("processing PDF")

	if startPage >= 0 || endPage >= 0 {
		if startPage < 0 {
			startPage = 0
		}
		if endPage < 0 {
			endPage = info.PageCount - 1
		}
		logger.Info().Int("from", startPage+1).Int("to", endPage+1).Msg("cleaning page range")
	} else {
		startPage, endPage = 0, -1
	}

	if outputPath != "" {
		if err := converter.RunPageRange(inputPath, outputPath, startPage, endPage); err != nil {
			return fmt.Errorf("failed to clean PDF: %w", err)
		}
		logger.Info().Str("output", outputPath).Str("format", string(config.Format)).Msg("output written")
		return nil
	}

	text, err := converter.CleanPageRange(inputPath, startPage, endPage)
	if err != nil {
		return fmt.Errorf("failed to clean PDF: %w", err)
	}
	fmt.Print(text)

	return nil
}
