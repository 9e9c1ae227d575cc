package logging

import (
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

type testAppender struct {
	tb testing.TB
}

// NewTestAppender returns an appender that writes through tb.Log, so lines stay with the test that
// produced them.
func NewTestAppender(tb testing.TB) Appender {
	return &testAppender{tb}
}

// fieldEncoder renders only the fields of an entry, in order, as one JSON object.
var fieldEncoder = zapcore.EncoderConfig{SkipLineEnding: true}

func (tapp *testAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	tapp.tb.Helper()
	parts := []string{
		entry.Time.Format(DefaultTimeFormatStr),
		strings.ToUpper(entry.Level.String()),
		entry.LoggerName,
	}
	if entry.Caller.Defined {
		parts = append(parts, shortCaller(entry.Caller))
	}
	parts = append(parts, entry.Message)

	var err error
	if len(fields) > 0 {
		buf, encErr := zapcore.NewJSONEncoder(fieldEncoder).EncodeEntry(zapcore.Entry{}, fields)
		if encErr == nil {
			parts = append(parts, buf.String())
			buf.Free()
		}
		err = encErr
	}
	tapp.tb.Log(strings.Join(parts, "\t"))
	return err
}

func (tapp *testAppender) Sync() error {
	return nil
}

// shortCaller formats a caller as "<package dir>/<file>:<line>".
func shortCaller(caller zapcore.EntryCaller) string {
	dir, file := path.Split(filepath.ToSlash(caller.File))
	return path.Base(dir) + "/" + file + ":" + strconv.Itoa(caller.Line)
}
