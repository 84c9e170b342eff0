package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

// testAppender writes entries through tb.Log so they show up under the test that made them.
type testAppender struct {
	tb testing.TB
}

// NewTestAppender returns an appender writing to tb.
func NewTestAppender(tb testing.TB) Appender {
	return &testAppender{tb: tb}
}

func (ta *testAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	ta.tb.Helper()
	parts := []string{
		entry.Time.Format(DefaultTimeFormatStr),
		strings.ToUpper(entry.Level.String()),
		entry.LoggerName,
	}
	if entry.Caller.Defined {
		parts = append(parts, entry.Caller.TrimmedPath())
	}
	parts = append(parts, entry.Message)

	var err error
	if len(fields) > 0 {
		// fields are encoded in call order
		enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{SkipLineEnding: true})
		buf, encErr := enc.EncodeEntry(zapcore.Entry{}, fields)
		if encErr == nil {
			parts = append(parts, buf.String())
			buf.Free()
		}
		err = encErr
	}
	ta.tb.Log(strings.Join(parts, "\t"))
	return err
}

func (ta *testAppender) Sync() error {
	return nil
}
