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

// silenceTimeoutMs is the maximum time a pending slot can remain unflushed
// after the last Add.
const silenceTimeoutMs int64 = 20_000

// pendingEntry is the Dedup Buffer's single coalescing slot.
type pendingEntry struct {
	tag                 string
	message             string
	level               uint8
	count               int
	lastTimestampMillis int64
}

// FlushFunc is invoked exactly once per run of identical (tag, message,
// level) triples, because a different triple arrived, because the silence
// timeout elapsed, or because Flush was called.
type FlushFunc func(tag, message string, level uint8, count int, lastTimestampMillis int64)

// DedupBuffer coalesces consecutive identical (tag, message, level) triples
// into one FlushFunc call annotated with a repetition count. It owns at
// most one pending slot and at most one armed timer at any time. It is not
// internally synchronized — per §5, the core is single-threaded
// cooperative, and a multi-threaded caller (the Facade) must serialize Add
// against timer-fired callbacks itself.
type DedupBuffer struct {
	clock     Clock
	scheduler DelayedCallback
	onFlush   FlushFunc

	slot       *pendingEntry
	timer      Cancellable
	generation int64
}

// NewDedupBuffer constructs an empty DedupBuffer.
func NewDedupBuffer(clock Clock, scheduler DelayedCallback, onFlush FlushFunc) *DedupBuffer {
	return &DedupBuffer{clock: clock, scheduler: scheduler, onFlush: onFlush}
}

// Add records one occurrence of (tag, message, level). If it matches the
// pending slot, the slot's count is bumped and its timer rearmed. If it
// differs, the pending slot is flushed immediately before the new triple
// starts a fresh slot.
func (d *DedupBuffer) Add(tag, message string, level uint8) {
	now := d.clock.NowMillis()

	if d.slot == nil {
		d.startSlot(tag, message, level, now)
		return
	}

	if d.slot.tag == tag && d.slot.message == message && d.slot.level == level {
		d.slot.count++
		d.slot.lastTimestampMillis = now
		d.timer.Cancel()
		d.armTimer()
		return
	}

	d.timer.Cancel()
	d.flushLocked()
	d.startSlot(tag, message, level, now)
}

// Flush forces an immediate flush of any pending slot. Used by Facade.Close
// so a trace's last run is not lost when the process exits before the
// silence timer fires.
func (d *DedupBuffer) Flush() {
	if d.slot == nil {
		return
	}
	if d.timer != nil {
		d.timer.Cancel()
	}
	d.flushLocked()
}

func (d *DedupBuffer) startSlot(tag, message string, level uint8, now int64) {
	d.slot = &pendingEntry{tag: tag, message: message, level: level, count: 1, lastTimestampMillis: now}
	d.armTimer()
}

// armTimer schedules the silence-timeout transition, tagging it with the
// current generation. A matching (tag, message, level) Add cancels and
// rearms on every occurrence; Cancel on an already-fired timer can still
// race with that rearm (time.AfterFunc's CAS guard only stops it from
// firing twice, not from firing at all once started), so onTimerFire
// rechecks the generation rather than trusting that cancellation landed.
func (d *DedupBuffer) armTimer() {
	d.generation++
	gen := d.generation
	d.timer = d.scheduler.RunAfterDelay(silenceTimeoutMs, func() { d.onTimerFire(gen) })
}

// onTimerFire is the silence-timeout transition: Pending -> Empty. It is a
// no-op if the slot has already been flushed, or if a later Add has rearmed
// the timer since this one was scheduled.
func (d *DedupBuffer) onTimerFire(gen int64) {
	if d.slot == nil || gen != d.generation {
		return
	}
	d.timer = nil
	d.flushLocked()
}

// flushLocked emits and clears the current slot. The caller is responsible
// for having already cancelled any armed timer.
func (d *DedupBuffer) flushLocked() {
	slot := d.slot
	d.slot = nil
	if slot != nil {
		d.onFlush(slot.tag, slot.message, slot.level, slot.count, slot.lastTimestampMillis)
	}
}
