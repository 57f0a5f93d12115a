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
	"sync/atomic"
	"time"
)

// Cancellable is a handle returned by DelayedCallback.RunAfterDelay.
type Cancellable interface {
	// Cancel prevents block from executing if it has not already started.
	// Idempotent; a no-op once block has begun or finished.
	Cancel()
}

// DelayedCallback schedules a one-shot callback after a delay. The Dedup
// Buffer is the only consumer; it does not assume any particular thread
// runs block, and relies on the Facade to serialize block against Add.
type DelayedCallback interface {
	RunAfterDelay(delayMs int64, block func()) Cancellable
}

// timerScheduler is the default DelayedCallback, backed by time.AfterFunc.
type timerScheduler struct{}

// NewTimerScheduler returns the default DelayedCallback.
func NewTimerScheduler() DelayedCallback { return timerScheduler{} }

func (timerScheduler) RunAfterDelay(delayMs int64, block func()) Cancellable {
	c := &timerCancellable{}
	c.timer = time.AfterFunc(time.Duration(delayMs)*time.Millisecond, func() {
		// started flips before block runs, closing the race window between
		// Stop() returning false (timer already fired) and block() actually
		// beginning: Cancel() after this point must observe started == 1 and
		// treat itself as a no-op, per the delayed-callback contract.
		if !c.started.CompareAndSwap(0, 1) {
			return
		}
		block()
	})
	return c
}

type timerCancellable struct {
	timer   *time.Timer
	started atomic.Int32
}

func (c *timerCancellable) Cancel() {
	if c.started.CompareAndSwap(0, 1) {
		c.timer.Stop()
	}
}
