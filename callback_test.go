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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerScheduler_FiresAfterDelay(t *testing.T) {
	sched := NewTimerScheduler()
	var fired atomic.Bool

	sched.RunAfterDelay(10, func() { fired.Store(true) })

	assert.Eventually(t, fired.Load, time.Second, time.Millisecond)
}

func TestTimerScheduler_CancelBeforeStartPreventsExecution(t *testing.T) {
	sched := NewTimerScheduler()
	var fired atomic.Bool

	c := sched.RunAfterDelay(50, func() { fired.Store(true) })
	c.Cancel()

	time.Sleep(100 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestTimerScheduler_CancelAfterFireIsNoOp(t *testing.T) {
	sched := NewTimerScheduler()
	var fired atomic.Bool

	c := sched.RunAfterDelay(5, func() { fired.Store(true) })
	assert.Eventually(t, fired.Load, time.Second, time.Millisecond)

	// Must not panic, and must not undo the already-completed call.
	c.Cancel()
	assert.True(t, fired.Load())
}

func TestTimerScheduler_MultipleCancelsAreIdempotent(t *testing.T) {
	sched := NewTimerScheduler()
	c := sched.RunAfterDelay(50, func() {})
	c.Cancel()
	c.Cancel()
	c.Cancel()
}
