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
	"fmt"
	"sync"
	"time"
)

// Facade is the concrete implementation of the external collaborator
// described in §4.4: it owns a RingStore and a DedupBuffer, formats display
// lines, and routes them to a ConsoleSink and the RingStore under one
// shared mutex, satisfying §5's requirement that callback delivery be
// serialized against Log/LogW/LogE.
type Facade struct {
	mu sync.Mutex

	store    *RingStore
	dedup    *DedupBuffer
	sink     ConsoleSink
	clock    Clock
	cfg      LogConfig
	deviceID string

	closed bool
}

// Option customizes Facade.Open.
type Option func(*facadeOptions)

type facadeOptions struct {
	fs        FS
	clock     Clock
	scheduler DelayedCallback
	sink      ConsoleSink
	uuids     UUIDGenerator
	logger    *diagLogger
}

// WithFS injects the filesystem collaborator used to open the RingStore.
func WithFS(fs FS) Option { return func(o *facadeOptions) { o.fs = fs } }

// WithFacadeClock injects the Clock used both for record timestamps and the
// Dedup Buffer's lastTimestampMillis. The silence delay itself is timed by
// the scheduler, not by this Clock.
func WithFacadeClock(c Clock) Option { return func(o *facadeOptions) { o.clock = c } }

// WithScheduler injects the DelayedCallback used by the Dedup Buffer.
func WithScheduler(s DelayedCallback) Option { return func(o *facadeOptions) { o.scheduler = s } }

// WithConsoleSink injects the ConsoleSink display lines are routed to.
func WithConsoleSink(s ConsoleSink) Option { return func(o *facadeOptions) { o.sink = s } }

// WithUUIDGenerator injects the UUIDGenerator used for DeviceID.
func WithUUIDGenerator(g UUIDGenerator) Option { return func(o *facadeOptions) { o.uuids = g } }

// WithFacadeDiagLogger injects the internal diagnostics logger propagated
// down to the underlying RingStore.
func WithFacadeDiagLogger(d *diagLogger) Option { return func(o *facadeOptions) { o.logger = d } }

// Open constructs a Facade: a RingStore over path/cfg, a DedupBuffer wired
// to a silence-timeout flush, and the default adapters for anything not
// overridden by opts.
func Open(path string, cfg LogConfig, opts ...Option) (*Facade, error) {
	o := facadeOptions{
		fs:        NewOSFS(),
		clock:     NewSystemClock(),
		scheduler: NewTimerScheduler(),
		sink:      StdoutSink{},
		uuids:     NewUUIDGenerator(),
		logger:    newDiagLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	store, err := OpenRingStore(path, cfg, o.fs, WithClock(o.clock), WithDiagLogger(o.logger))
	if err != nil {
		return nil, err
	}

	f := &Facade{
		store:    store,
		sink:     o.sink,
		clock:    o.clock,
		cfg:      cfg,
		deviceID: o.uuids.Generate(),
	}
	// The timer may fire on a goroutine of the scheduler's choosing; wrap it
	// so that by the time it reaches the Dedup Buffer, f.mu is held, exactly
	// as it is for every synchronous Add call from Log/LogW/LogE. onFlush
	// itself therefore never locks: every path into it already holds f.mu.
	f.dedup = NewDedupBuffer(o.clock, lockingScheduler{mu: &f.mu, inner: o.scheduler}, f.onFlush)
	return f, nil
}

// lockingScheduler wraps a DelayedCallback so every fired callback acquires
// mu before running, serializing it against Facade.Log/LogW/LogE per §5.
type lockingScheduler struct {
	mu    *sync.Mutex
	inner DelayedCallback
}

func (s lockingScheduler) RunAfterDelay(delayMs int64, block func()) Cancellable {
	return s.inner.RunAfterDelay(delayMs, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		block()
	})
}

// DeviceID returns this Facade's RFC 4122 v4 identifier,
// generated once at Open time. It has no on-disk representation.
func (f *Facade) DeviceID() string {
	return f.deviceID
}

// Log records an INFO-level line for tag.
func (f *Facade) Log(tag, message string) {
	f.add(tag, message, LevelInfo)
}

// LogW records a WARNING-level line for tag.
func (f *Facade) LogW(tag, message string) {
	f.add(tag, message, LevelWarning)
}

// LogE records an ERROR-level line for tag. cause is attached to the
// console sink only when it can still be attributed to this exact call —
// i.e. when dedupEnabled is false, so the line is emitted immediately.
// The core's Pending slot (§3.3) carries no cause field, so a coalesced
// run of identical ERROR triples flushes without one; this is a property
// of the state machine's shape, not a bug to work around.
func (f *Facade) LogE(tag, message string, cause error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	if !f.cfg.DedupEnabled {
		f.emit(tag, message, LevelError, 1, f.clock.NowMillis(), cause)
		return
	}
	f.dedup.Add(tag, message, LevelError)
}

func (f *Facade) add(tag, message string, level uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	if !f.cfg.DedupEnabled {
		f.emit(tag, message, level, 1, f.clock.NowMillis(), nil)
		return
	}
	f.dedup.Add(tag, message, level)
}

// onFlush is the Dedup Buffer's flush callback. Every call path into it —
// synchronous from Add, or asynchronous via lockingScheduler's wrapper —
// already holds f.mu, so onFlush itself must not lock.
func (f *Facade) onFlush(tag, message string, level uint8, count int, lastTimestampMillis int64) {
	f.emit(tag, message, level, count, lastTimestampMillis, nil)
}

// emit formats the display line per §4.4 and routes it to the console sink
// and the RingStore. Callers must hold f.mu.
func (f *Facade) emit(tag, message string, level uint8, count int, timestampMillis int64, cause error) {
	line := formatLine(tag, message, level, count, timestampMillis)

	switch level {
	case LevelWarning:
		f.sink.LogW(tag, line)
	case LevelError:
		f.sink.LogE(tag, line, cause)
	default:
		f.sink.Log(tag, line)
	}

	_, _ = f.store.Append(line, level)
}

// formatLine renders "[yyyy-MM-dd HH:mm:ss.SSS] [LEVEL ]? [tag] message"
// using the local system timezone, per §4.4/§9's timezone Open Question
// decision, appending " (repeat N times)" when count > 1.
func formatLine(tag, message string, level uint8, count int, timestampMillis int64) string {
	ts := time.UnixMilli(timestampMillis).Local().Format("2006-01-02 15:04:05.000")

	var levelToken string
	switch level {
	case LevelWarning:
		levelToken = "WARNING "
	case LevelError:
		levelToken = "ERROR "
	default:
		levelToken = ""
	}

	line := fmt.Sprintf("[%s] %s[%s] %s", ts, levelToken, tag, message)
	if count > 1 {
		line += fmt.Sprintf(" (repeat %d times)", count)
	}
	return line
}

// Tail passes through to the underlying RingStore.
func (f *Facade) Tail(count int) ([]LogRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, notInitializedErr("tail")
	}
	return f.store.Tail(count)
}

// Since passes through to the underlying RingStore.
func (f *Facade) Since(cutoffMillis int64, limit int) ([]LogRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, notInitializedErr("since")
	}
	return f.store.Since(cutoffMillis, limit)
}

// Close flushes any pending dedup slot, then closes the RingStore.
func (f *Facade) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.dedup.Flush()
	f.closed = true
	return f.store.Close()
}
