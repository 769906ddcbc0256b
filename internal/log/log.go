// Package log provides the process-wide slog.Logger used across the
// checker. It wraps slog with a handler that filters debug/info records
// by a "section" attribute, so a single invocation can turn on tracing
// for, say, just "subtract" and "add" without drowning in everything else.
package log

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"strings"
)

// enabledSections lists the sections whose Debug/Info records are let
// through. Warn and above always pass regardless of section.
var enabledSections = []string{}

var levelVar = func() *slog.LevelVar {
	v := new(slog.LevelVar)
	v.Set(slog.LevelDebug)
	return v
}()

var LoggerOpts = &slog.HandlerOptions{
	AddSource: true,
	Level:     levelVar,
	ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == "time" {
			return slog.Attr{}
		}
		return a
	},
}

var DefaultLogger = slog.New(&filteringHandler{underlying: slog.NewTextHandler(os.Stderr, LoggerOpts)})

// SetLevel adjusts the minimum level the underlying handler will emit.
// It is the target of the CLI's --debug flag.
func SetLevel(level slog.Level) {
	levelVar.Set(level)
}

// EnableSections replaces the section allow-list used to filter
// below-Warn records. With an empty list (the default), below-Warn
// records pass only from loggers that have no section attached.
func EnableSections(sections ...string) {
	enabledSections = sections
}

var _ slog.Handler = &filteringHandler{}

type filteringHandler struct {
	underlying slog.Handler
	sections   []string
}

func (f *filteringHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return f.underlying.Enabled(ctx, level)
}

func (f *filteringHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= slog.LevelWarn {
		return f.underlying.Handle(ctx, record)
	}
	wantSection := len(enabledSections) == 0 && len(f.sections) == 0
	record.Attrs(func(attr slog.Attr) bool {
		wantSection = wantSection || attr.Key == "section" && slices.ContainsFunc(enabledSections, func(section string) bool {
			return strings.HasPrefix(attr.Value.String(), section)
		})
		return !wantSection
	})
	wantSection = wantSection || slices.ContainsFunc(f.sections, func(attached string) bool {
		return slices.ContainsFunc(enabledSections, func(section string) bool {
			return strings.HasPrefix(attached, section)
		})
	})
	if !wantSection {
		return nil
	}
	return f.underlying.Handle(ctx, record)
}

func (f *filteringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var newAttrs []slog.Attr
	var sections []string
	for _, attr := range attrs {
		if attr.Key == "section" {
			sections = append(sections, attr.Value.String())
		} else {
			newAttrs = append(newAttrs, attr)
		}
	}
	return &filteringHandler{
		underlying: f.underlying.WithAttrs(newAttrs),
		sections:   append(slices.Clone(f.sections), sections...),
	}
}

func (f *filteringHandler) WithGroup(name string) slog.Handler {
	return &filteringHandler{
		underlying: f.underlying.WithGroup(name),
		sections:   f.sections,
	}
}
