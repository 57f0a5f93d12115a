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

// LogConfig is immutable for the lifetime of a Ring Store.
type LogConfig struct {
	MaxBytes      int32
	FormatVersion int32
	DedupEnabled  bool
}

// DefaultLogConfig returns a LogConfig with FormatVersion 1 and dedup
// enabled, leaving MaxBytes for the caller to set.
func DefaultLogConfig(maxBytes int32) LogConfig {
	return LogConfig{
		MaxBytes:      maxBytes,
		FormatVersion: 1,
		DedupEnabled:  true,
	}
}

// StoreStats is a read-only projection of the on-disk header.
type StoreStats struct {
	BodySize      int32
	LastEnd       int32
	FormatVersion int32
}

// Log levels, matching the Facade's level mapping (§4.4).
const (
	LevelInfo    uint8 = 1
	LevelWarning uint8 = 2
	LevelError   uint8 = 3
)
