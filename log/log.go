// Package log provides the leveled, structured logger used throughout
// corebox. It wraps log/slog with a glog-style per-package verbosity
// filter and a terminal handler for interactive use.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level mirrors slog.Level with names matching the engine's vocabulary.
type Level int

const (
	LevelTrace Level = -8
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
	LevelCrit  Level = 12
)

func (l Level) slog() slog.Level { return slog.Level(l) }

func (l Level) String() string {
	switch {
	case l <= LevelTrace:
		return "TRACE"
	case l <= LevelDebug:
		return "DEBUG"
	case l <= LevelInfo:
		return "INFO"
	case l <= LevelWarn:
		return "WARN"
	case l <= LevelError:
		return "ERROR"
	default:
		return "CRIT"
	}
}

// Logger is the handle every component logs through. Construct one with
// New and attach persistent key/value context with With.
type Logger struct {
	inner *slog.Logger
}

var root = New(NewTerminalHandler(os.Stderr))

// Root returns the process-wide default logger. Components should
// prefer an injected *Logger, but Root exists for package-level
// convenience logging (panics recovered at the top of main, etc.).
func Root() *Logger { return root }

// SetRoot replaces the process-wide default logger, used once at
// startup after the configured handler is known.
func SetRoot(l *Logger) { root = l }

// New builds a Logger around an slog.Handler.
func New(h slog.Handler) *Logger { return &Logger{inner: slog.New(h)} }

// With returns a Logger that always includes the given key/value pairs.
func (l *Logger) With(kv ...any) *Logger { return &Logger{inner: l.inner.With(kv...)} }

func (l *Logger) log(level Level, msg string, kv ...any) {
	l.inner.Log(context.Background(), level.slog(), msg, kv...)
}

func (l *Logger) Trace(msg string, kv ...any) { l.log(LevelTrace, msg, kv...) }
func (l *Logger) Debug(msg string, kv ...any) { l.log(LevelDebug, msg, kv...) }
func (l *Logger) Info(msg string, kv ...any)  { l.log(LevelInfo, msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.log(LevelWarn, msg, kv...) }
func (l *Logger) Error(msg string, kv ...any) { l.log(LevelError, msg, kv...) }

// Crit logs at the highest severity. It does not exit the process;
// callers that consider a condition fatal must act on it themselves.
func (l *Logger) Crit(msg string, kv ...any) { l.log(LevelCrit, msg, kv...) }

// terminalHandler renders human-readable, column-aligned log lines.
type terminalHandler struct {
	mu     sync.Mutex
	out    io.Writer
	level  Level
	glog   *GlogHandler
	attrs  []slog.Attr
	groups []string
}

// NewTerminalHandler returns a handler suitable for interactive
// sessions (cmd/simd with the config's log.json unset).
func NewTerminalHandler(out io.Writer) slog.Handler {
	return &terminalHandler{out: out, level: LevelInfo}
}

// NewTerminalHandlerWithLevel is the same as NewTerminalHandler with an
// explicit minimum level.
func NewTerminalHandlerWithLevel(out io.Writer, level Level) slog.Handler {
	return &terminalHandler{out: out, level: level}
}

func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.slog()
}

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	var b strings.Builder
	fmt.Fprintf(&b, "%-5s [%s] %s", Level(r.Level).String(), r.Time.Format("01-02|15:04:05.000"), r.Message)
	for _, a := range h.attrs {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	})
	b.WriteByte('\n')
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &nh
}

func (h *terminalHandler) WithGroup(name string) slog.Handler {
	nh := *h
	nh.groups = append(append([]string{}, h.groups...), name)
	return &nh
}

// JSONHandler returns a handler emitting one JSON object per line, for
// headless/production deployments.
func JSONHandler(out io.Writer) slog.Handler {
	return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: LevelTrace.slog()})
}

// GlogHandler adds glog-style per-module verbosity overrides (a
// Vmodule spec such as "store*=debug,transport*=trace") on top of a
// base handler. A record's module is the value of its "module"
// attribute, whether attached with With or passed on the call.
type GlogHandler struct {
	mu        sync.RWMutex
	base      slog.Handler
	verbosity Level
	patterns  []vmodulePattern
	module    string
}

type vmodulePattern struct {
	re    *regexp.Regexp
	level Level
}

// NewGlogHandler wraps base with a verbosity filter, defaulting to
// LevelInfo until Verbosity/Vmodule configure it.
func NewGlogHandler(base slog.Handler) *GlogHandler {
	return &GlogHandler{base: base, verbosity: LevelInfo}
}

func (g *GlogHandler) Verbosity(level Level) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verbosity = level
}

// Vmodule parses a comma-separated "pattern=level" list, pattern being
// a glob over a record's "module" attribute value.
func (g *GlogHandler) Vmodule(spec string) error {
	var pats []vmodulePattern
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return fmt.Errorf("log: malformed vmodule clause %q", part)
		}
		level, err := parseLevelName(kv[1])
		if err != nil {
			return err
		}
		re, err := regexp.Compile(globToRegexp(kv[0]))
		if err != nil {
			return fmt.Errorf("log: bad vmodule pattern %q: %w", kv[0], err)
		}
		pats = append(pats, vmodulePattern{re: re, level: level})
	}
	g.mu.Lock()
	g.patterns = pats
	g.mu.Unlock()
	return nil
}

func parseLevelName(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "crit", "critical":
		return LevelCrit, nil
	default:
		return 0, fmt.Errorf("log: unknown level %q", s)
	}
}

func globToRegexp(glob string) string {
	var b strings.Builder
	b.WriteByte('^')
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '.':
			b.WriteString(`\.`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('$')
	return b.String()
}

func (g *GlogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return level >= g.verbosity.slog() || len(g.patterns) > 0
}

func (g *GlogHandler) Handle(ctx context.Context, r slog.Record) error {
	g.mu.RLock()
	verbosity := g.verbosity
	pats := g.patterns
	g.mu.RUnlock()

	min := verbosity
	file := g.module
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "module" {
			file = a.Value.String()
		}
		return true
	})
	for _, p := range pats {
		if file != "" && p.re.MatchString(file) {
			min = p.level
			break
		}
	}
	if Level(r.Level) < min {
		return nil
	}
	return g.base.Handle(ctx, r)
}

func (g *GlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	module := g.module
	for _, a := range attrs {
		if a.Key == "module" {
			module = a.Value.String()
		}
	}
	return &GlogHandler{base: g.base.WithAttrs(attrs), verbosity: g.verbosity, patterns: g.patterns, module: module}
}

func (g *GlogHandler) WithGroup(name string) slog.Handler {
	return &GlogHandler{base: g.base.WithGroup(name), verbosity: g.verbosity, patterns: g.patterns}
}

// NewLogger is a convenience constructor: NewLogger(handler) rather
// than New(handler).
func NewLogger(h slog.Handler) *Logger { return New(h) }

// RotatingWriter opens a size-rotated log file, used by cmd/simd when
// configured with a log file path instead of stderr.
func RotatingWriter(path string, maxSizeMB, maxBackups, maxAgeDays int) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
}
