// Copyright 2025 TimeWtr
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package klog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// diagLogger is the internal structured logger used for operational
// diagnostics about the store itself (IO failures, corruption-stop events,
// operation summaries). It never logs message payloads or persisted record
// content; that would duplicate the ring buffer's own job and violate the
// no-structured-fields-on-persisted-records non-goal.
type diagLogger struct {
	l *zap.SugaredLogger
}

// newDiagLogger builds the default internal logger: JSON to stderr, info
// level, matching the corpus's preference for a structured JSON encoder
// over a plain-text one.
func newDiagLogger() *diagLogger {
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapcore.InfoLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	logger, err := cfg.Build()
	if err != nil {
		// Diagnostics must never be able to break the store; fall back to a
		// no-op logger rather than propagating a logging-setup failure.
		logger = zap.NewNop()
	}
	return &diagLogger{l: logger.Sugar()}
}

// nopDiagLogger returns a logger that discards everything, used when a
// caller does not want internal diagnostics (e.g. in hot unit-test loops).
func nopDiagLogger() *diagLogger {
	return &diagLogger{l: zap.NewNop().Sugar()}
}

func (d *diagLogger) ioFailure(op, path string, err error) {
	if d == nil || d.l == nil {
		return
	}
	d.l.Errorw("klog io failure", "op", op, "path", path, "error", err)
}

func (d *diagLogger) corruptionStop(op string, reason string, recordsReturned int) {
	if d == nil || d.l == nil {
		return
	}
	d.l.Debugw("klog scan terminated", "op", op, "reason", reason, "records", recordsReturned)
}

func (d *diagLogger) appendSummary(bytesWritten int32, wrapped bool) {
	if d == nil || d.l == nil {
		return
	}
	d.l.Debugw("klog append", "bytesWritten", bytesWritten, "wrapped", wrapped)
}
