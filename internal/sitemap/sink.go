package sitemap

import (
	"fmt"

	"github.com/romangod6/sitemapgen/internal/logger"
)

// Sink receives progress messages. A nil slot suppresses that level.
type Sink struct {
	Success func(string)
	Debug   func(string)
	Warning func(string)
	Notice  func(string)
}

// LoggerSink routes every slot to l. Success and notice messages are info
// entries tagged with their slot.
func LoggerSink(l logger.Logger) Sink {
	return Sink{
		Success: func(msg string) { l.Info(msg, logger.String("slot", "success")) },
		Debug:   func(msg string) { l.Debug(msg) },
		Warning: func(msg string) { l.Warn(msg) },
		Notice:  func(msg string) { l.Info(msg, logger.String("slot", "notice")) },
	}
}

func emit(slot func(string), format string, args ...any) {
	if slot != nil {
		slot(fmt.Sprintf(format, args...))
	}
}

func (s Sink) success(format string, args ...any) { emit(s.Success, format, args...) }
func (s Sink) debug(format string, args ...any)   { emit(s.Debug, format, args...) }
func (s Sink) warning(format string, args ...any) { emit(s.Warning, format, args...) }
func (s Sink) notice(format string, args ...any)  { emit(s.Notice, format, args...) }
