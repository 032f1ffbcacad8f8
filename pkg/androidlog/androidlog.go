// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package androidlog is the native log facility: liblog on android, a
// logcat-style text writer everywhere else.
package androidlog

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/outrigdev/stdiolog/pkg/ds"
	"github.com/sirupsen/logrus"
)

// WriterLogger formats entries logcat "brief" style (I/tag: msg) onto a writer
type WriterLogger struct {
	lock sync.Mutex
	out  io.Writer
}

var _ ds.NativeLogger = (*WriterLogger)(nil)

func MakeWriterLogger(out io.Writer) *WriterLogger {
	return &WriterLogger{out: out}
}

func (w *WriterLogger) Emit(prio ds.Priority, tag string, msg string) {
	w.lock.Lock()
	defer w.lock.Unlock()
	_, _ = fmt.Fprintf(w.out, "%s/%s: %s\n", prio, tag, msg)
}

// PriorityForLevel maps a logrus level onto the android priority scale
func PriorityForLevel(level logrus.Level) ds.Priority {
	switch level {
	case logrus.TraceLevel:
		return ds.PriorityVerbose
	case logrus.DebugLevel:
		return ds.PriorityDebug
	case logrus.InfoLevel:
		return ds.PriorityInfo
	case logrus.WarnLevel:
		return ds.PriorityWarn
	case logrus.ErrorLevel:
		return ds.PriorityError
	case logrus.FatalLevel, logrus.PanicLevel:
		return ds.PriorityFatal
	}
	return ds.PriorityDefault
}

// TagField overrides the hook's tag for a single entry
const TagField = "tag"

// Hook forwards logrus entries to a native logger under Tag (or the entry's TagField)
type Hook struct {
	Native ds.NativeLogger
	Tag    string
}

var _ logrus.Hook = (*Hook)(nil)

func (h *Hook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *Hook) Fire(entry *logrus.Entry) error {
	tag := h.Tag
	if entryTag, ok := entry.Data[TagField].(string); ok && entryTag != "" {
		tag = entryTag
	}
	h.Native.Emit(PriorityForLevel(entry.Level), tag, formatEntry(entry))
	return nil
}

func formatEntry(entry *logrus.Entry) string {
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k == TagField {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return entry.Message
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteString(entry.Message)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, entry.Data[k])
	}
	return sb.String()
}

var (
	frameworkOnce   sync.Once
	frameworkLogger *logrus.Logger
)

// InitFramework sets up the shared logrus logger that writes to the native log.
// The level is always Trace. Safe to call repeatedly: only the first call's
// native logger and tag take effect, later calls return the same logger.
func InitFramework(native ds.NativeLogger, tag string) *logrus.Logger {
	frameworkOnce.Do(func() {
		l := logrus.New()
		l.SetOutput(io.Discard)
		l.SetLevel(logrus.TraceLevel)
		l.AddHook(&Hook{Native: native, Tag: tag})
		frameworkLogger = l
	})
	return frameworkLogger
}
