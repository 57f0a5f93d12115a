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
	"os"
)

// ConsoleSink receives fully preformatted display lines from the Facade. It
// never sees the on-disk record format, only the already-formatted string.
type ConsoleSink interface {
	Log(tag, message string)
	LogW(tag, message string)
	LogE(tag, message string, cause error)
}

// StdoutSink is the default ConsoleSink: informational and warning lines go
// to stdout, error lines go to stderr.
type StdoutSink struct{}

func (StdoutSink) Log(_, message string) {
	_, _ = os.Stdout.WriteString(message + "\n")
}

func (StdoutSink) LogW(_, message string) {
	_, _ = os.Stdout.WriteString(message + "\n")
}

func (StdoutSink) LogE(_, message string, cause error) {
	if cause != nil {
		_, _ = os.Stderr.WriteString(fmt.Sprintf("%s: %v\n", message, cause))
		return
	}
	_, _ = os.Stderr.WriteString(message + "\n")
}
