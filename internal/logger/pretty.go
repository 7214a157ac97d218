package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"
)

// palette holds the escape sequences a PrettyHandler writes. The plain
// palette is all empty strings.
type palette struct {
	reset, bold, dim, attrs string
	debug, info, warn, err  string
}

var (
	colored = palette{
		reset: "\033[0m",
		bold:  "\033[1m",
		dim:   "\033[90m",
		attrs: "\033[36m",
		debug: "\033[90m",
		info:  "\033[34m",
		warn:  "\033[33m",
		err:   "\033[31m",
	}
	plain = palette{}
)

// PrettyHandler is a slog.Handler that formats records as one colored line
// for CLI output: [TIME] LEVEL message key=value ... (file:line).
//
// Colors are dropped when NO_COLOR is set in the environment.
type PrettyHandler struct {
	opts slog.HandlerOptions
	w    io.Writer
	mu   *sync.Mutex
	pal  palette

	// prefix is the dotted group path applied to attributes added later.
	prefix string
	// attrs were added through WithAttrs and are already qualified.
	attrs []byte
}

// NewPrettyHandler creates a new PrettyHandler.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	pal := colored
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		pal = plain
	}
	return &PrettyHandler{
		opts: *opts,
		w:    w,
		mu:   &sync.Mutex{},
		pal:  pal,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle formats and writes a log record.
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)

	buf = append(buf, h.pal.dim...)
	buf = append(buf, '[')
	buf = r.Time.AppendFormat(buf, time.DateTime)
	buf = append(buf, ']')
	buf = append(buf, h.pal.reset...)
	buf = append(buf, ' ')

	buf = append(buf, h.levelColor(r.Level)...)
	buf = append(buf, h.pal.bold...)
	buf = appendPadded(buf, r.Level.String(), 5)
	buf = append(buf, h.pal.reset...)
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)

	if len(h.attrs) > 0 || r.NumAttrs() > 0 {
		buf = append(buf, ' ')
		buf = append(buf, h.pal.attrs...)
		buf = append(buf, h.attrs...)
		first := len(h.attrs) == 0
		r.Attrs(func(a slog.Attr) bool {
			if !first {
				buf = append(buf, ' ')
			}
			first = false
			buf = appendAttr(buf, a, h.prefix)
			return true
		})
		buf = append(buf, h.pal.reset...)
	}

	if h.opts.AddSource && r.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{r.PC})
		f, _ := frames.Next()
		if f.File != "" {
			buf = append(buf, ' ')
			buf = append(buf, h.pal.dim...)
			buf = append(buf, '(')
			buf = append(buf, filepath.Base(f.File)...)
			buf = append(buf, ':')
			buf = strconv.AppendInt(buf, int64(f.Line), 10)
			buf = append(buf, ')')
			buf = append(buf, h.pal.reset...)
		}
	}
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

// WithAttrs returns a new handler with additional attributes.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := h.clone()
	for _, a := range attrs {
		if len(h2.attrs) > 0 {
			h2.attrs = append(h2.attrs, ' ')
		}
		h2.attrs = appendAttr(h2.attrs, a, h.prefix)
	}
	return h2
}

// WithGroup returns a new handler with a group name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.clone()
	if h2.prefix == "" {
		h2.prefix = name
	} else {
		h2.prefix = h2.prefix + "." + name
	}
	return h2
}

func (h *PrettyHandler) clone() *PrettyHandler {
	return &PrettyHandler{
		opts:   h.opts,
		w:      h.w,
		mu:     h.mu,
		pal:    h.pal,
		prefix: h.prefix,
		attrs:  append([]byte(nil), h.attrs...),
	}
}

func (h *PrettyHandler) levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return h.pal.err
	case level >= slog.LevelWarn:
		return h.pal.warn
	case level >= slog.LevelInfo:
		return h.pal.info
	default:
		return h.pal.debug
	}
}

func appendPadded(buf []byte, s string, width int) []byte {
	buf = append(buf, s...)
	for i := len(s); i < width; i++ {
		buf = append(buf, ' ')
	}
	return buf
}

func appendAttr(buf []byte, attr slog.Attr, prefix string) []byte {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return buf
	}
	key := attr.Key
	if prefix != "" {
		key = prefix + "." + key
	}

	if attr.Value.Kind() == slog.KindGroup {
		// Inline groups flatten into dotted keys.
		for i, a := range attr.Value.Group() {
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = appendAttr(buf, a, key)
		}
		return buf
	}

	buf = append(buf, key...)
	buf = append(buf, '=')

	switch v := attr.Value; v.Kind() {
	case slog.KindString:
		s := v.String()
		if needsQuoting(s) {
			buf = strconv.AppendQuote(buf, s)
		} else {
			buf = append(buf, s...)
		}
	case slog.KindTime:
		buf = v.Time().AppendFormat(buf, time.RFC3339)
	case slog.KindDuration:
		buf = append(buf, v.Duration().String()...)
	case slog.KindFloat64:
		buf = strconv.AppendFloat(buf, v.Float64(), 'g', -1, 64)
	case slog.KindInt64:
		buf = strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindBool:
		buf = strconv.AppendBool(buf, v.Bool())
	default:
		s := v.String()
		if needsQuoting(s) {
			buf = strconv.AppendQuote(buf, s)
		} else {
			buf = append(buf, s...)
		}
	}
	return buf
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	for _, c := range s {
		if c == ' ' || c == '\t' || c == '\n' || c == '"' || c == '=' {
			return true
		}
	}
	return false
}
