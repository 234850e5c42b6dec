// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package log implements leveled logging in which every message carries the
// logging tags of its context.
//
//	ctx = logtags.AddTag(ctx, "table", "parcels")
//	log.Infof(ctx, "decoded %d rows", n)
//
// produces an entry with a table=parcels field. Arguments are formatted
// through the redact package: values that are not marked safe are enclosed
// in redaction markers when redactable output is enabled, and printed as is
// otherwise.
package log

import (
	"context"
	"io"
	"os"
	"sync/atomic"

	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
	"github.com/sirupsen/logrus"
)

// Severity is the importance of a log entry.
type Severity int32

// The severities in increasing order of importance.
const (
	Severity_INFO Severity = iota
	Severity_WARNING
	Severity_ERROR
)

func (s Severity) String() string {
	switch s {
	case Severity_WARNING:
		return "WARNING"
	case Severity_ERROR:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (s Severity) level() logrus.Level {
	switch s {
	case Severity_WARNING:
		return logrus.WarnLevel
	case Severity_ERROR:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

type loggerT struct {
	logger     *logrus.Logger
	verbosity  atomic.Int32
	redactable atomic.Bool
}

var mainLog = func() *loggerT {
	l := &loggerT{logger: logrus.New()}
	l.logger.SetOutput(os.Stderr)
	l.logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	return l
}()

// SetOutput redirects all log entries to w.
func SetOutput(w io.Writer) {
	mainLog.logger.SetOutput(w)
}

// SetFormatter changes how log entries are rendered.
func SetFormatter(f logrus.Formatter) {
	mainLog.logger.SetFormatter(f)
}

// SetVerbosity sets the level up to which VEventf messages are logged and
// returns the previous level.
func SetVerbosity(level int32) int32 {
	return mainLog.verbosity.Swap(level)
}

// SetRedactable controls whether redaction markers are kept in the output.
func SetRedactable(redactable bool) {
	mainLog.redactable.Store(redactable)
}

// V returns whether messages at the given verbosity level are logged.
func V(level int32) bool {
	return level <= mainLog.verbosity.Load()
}

// Infof logs to the INFO severity.
func Infof(ctx context.Context, format string, args ...interface{}) {
	addStructured(ctx, Severity_INFO, format, args)
}

// Warningf logs to the WARNING severity.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	addStructured(ctx, Severity_WARNING, format, args)
}

// Errorf logs to the ERROR severity.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	addStructured(ctx, Severity_ERROR, format, args)
}

// VEventf logs to the INFO severity if the verbosity is at least level.
func VEventf(ctx context.Context, level int32, format string, args ...interface{}) {
	if V(level) {
		addStructured(ctx, Severity_INFO, format, args)
	}
}

// makeMessage formats the message of an entry.
func makeMessage(format string, args []interface{}) string {
	msg := redact.Sprintf(format, args...)
	if mainLog.redactable.Load() {
		return string(msg)
	}
	return msg.StripMarkers()
}

// contextFields turns the logging tags of ctx into entry fields. Tags
// without a value are rendered with an empty value.
func contextFields(ctx context.Context) logrus.Fields {
	tags := logtags.FromContext(ctx)
	if tags == nil {
		return nil
	}
	fields := make(logrus.Fields, len(tags.Get()))
	for _, t := range tags.Get() {
		fields[t.Key()] = t.ValueStr()
	}
	return fields
}

func addStructured(ctx context.Context, sev Severity, format string, args []interface{}) {
	if ctx == nil {
		panic("nil context")
	}
	mainLog.logger.WithFields(contextFields(ctx)).Log(sev.level(), makeMessage(format, args))
}
