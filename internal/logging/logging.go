// Package logging builds the zerolog loggers used across modcore.
//
// Console output renders a module-tagged event as "[Module] message", so
// every line a module writes is attributable at a glance. Module loggers
// drop debug events unless the module's debug flag is set.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ModuleField is the event field carrying the module name.
const ModuleField = "module"

// Config configures the root logger.
type Config struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string

	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer

	// NoColor disables ANSI colors in console output.
	NoColor bool

	// JSON writes raw zerolog JSON instead of console lines.
	JSON bool

	// Timestamp adds a time to every event.
	Timestamp bool
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Output:    os.Stderr,
		Timestamp: true,
	}
}

// ParseLevel parses a level name. Unknown names map to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New creates the root logger.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	if !cfg.JSON {
		cw := zerolog.ConsoleWriter{
			Out:           out,
			NoColor:       cfg.NoColor,
			TimeFormat:    time.TimeOnly,
			FormatPrepare: tagModule,
		}
		if !cfg.Timestamp {
			cw.PartsExclude = []string{zerolog.TimestampFieldName}
		}
		out = cw
	}

	ctx := zerolog.New(out).Level(ParseLevel(cfg.Level)).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

// tagModule folds the module field into the message.
func tagModule(evt map[string]any) error {
	name, ok := evt[ModuleField].(string)
	if !ok || name == "" {
		return nil
	}
	delete(evt, ModuleField)

	msg, _ := evt[zerolog.MessageFieldName].(string)
	evt[zerolog.MessageFieldName] = "[" + name + "] " + msg
	return nil
}

// ForModule returns a logger tagged with a module name. Debug events are
// written only when debug is true; otherwise the logger never goes below
// info, whatever the root level.
func ForModule(root zerolog.Logger, name string, debug bool) zerolog.Logger {
	l := root.With().Str(ModuleField, name).Logger()
	switch {
	case l.GetLevel() == zerolog.Disabled:
		return l
	case debug:
		return l.Level(zerolog.DebugLevel)
	case l.GetLevel() < zerolog.InfoLevel:
		return l.Level(zerolog.InfoLevel)
	default:
		return l
	}
}
