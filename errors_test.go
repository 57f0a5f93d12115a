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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_UnwrapExposesUnderlyingCause(t *testing.T) {
	cause := errors.New("disk full")
	err := ioErr("append", "ring.log", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "ring.log")
	assert.Contains(t, err.Error(), "append")
}

func TestIoErr_NilCauseReturnsNil(t *testing.T) {
	assert.Nil(t, ioErr("append", "ring.log", nil))
}

func TestNotInitializedErr_HasNoPathInMessage(t *testing.T) {
	err := notInitializedErr("tail")
	assert.Equal(t, KindNotInitialized, err.Kind)
	assert.Equal(t, "klog: tail: not initialized", err.Error())
}

func TestKind_StringUnknownFallback(t *testing.T) {
	var k Kind = 99
	assert.Equal(t, "unknown error", k.String())
}
