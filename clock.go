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

import "time"

// Clock is the Dedup Buffer's injectable wall-clock source. Tests
// substitute a controlled clock; monotonicity is not required.
type Clock interface {
	NowMillis() int64
}

// systemClock is the default Clock, backed by time.Now.
type systemClock struct{}

// NewSystemClock returns the default, real-time Clock.
func NewSystemClock() Clock { return systemClock{} }

func (systemClock) NowMillis() int64 {
	return time.Now().UnixMilli()
}
