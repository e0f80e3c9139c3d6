package pdfclean

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a console logger writing to out (stderr when nil) at the
// named level. Unknown levels fall back to info.
func NewLogger(out io.Writer, level string) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.Kitchen,
	}).Level(lvl).With().Timestamp().Logger()
}

// logProcessingMetrics logs the processing metrics as one structured event
// plus one debug event per page.
func logProcessingMetrics(logger zerolog.Logger, metrics ProcessingMetrics) {
	for _, pm := range metrics.PageExtractions {
		logger.Debug().
			Int("page", pm.PageNumber).
			Dur("duration", pm.Duration).
			Msg("page timing")
	}

	evt := statisticsFields(logger.Info().
		Dur("total", metrics.TotalTime.Round(time.Millisecond)).
		Dur("open", metrics.DocumentOpen.Round(time.Millisecond)), metrics.Statistics)

	if n := len(metrics.PageExtractions); n > 0 {
		evt = evt.Dur("avg_per_page", (metrics.TotalTime / time.Duration(n)).Round(time.Millisecond))
	}

	evt.Msg("processing metrics")
}

// logDocumentStatistics logs classification counts of a run without timings.
func logDocumentStatistics(logger zerolog.Logger, stats DocumentStatistics) {
	statisticsFields(logger.Info(), stats).Msg("document statistics")
}

func statisticsFields(evt *zerolog.Event, stats DocumentStatistics) *zerolog.Event {
	return evt.
		Int("pages", stats.TotalPages).
		Int("pages_with_separator", stats.PagesWithSeparator).
		Int("retained", stats.RetainedFragments).
		Int("footnotes", stats.FootnoteFragments).
		Int("page_numbers", stats.PageNumberFragments).
		Int("characters", stats.RetainedCharacters)
}
