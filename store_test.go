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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, fs *memFS, path string, maxBytes int32, clock Clock) *RingStore {
	t.Helper()
	cfg := DefaultLogConfig(maxBytes)
	s, err := OpenRingStore(path, cfg, fs, WithClock(clock), WithDiagLogger(nopDiagLogger()))
	require.NoError(t, err)
	return s
}

func TestOpenRingStore_InitializesFreshHeader(t *testing.T) {
	fs := newMemFS()
	s := openTestStore(t, fs, "ring.log", 116, newFakeClock(0))
	defer s.Close()

	stat, err := s.Stat()
	require.NoError(t, err)
	assert.EqualValues(t, 100, stat.BodySize)
	assert.EqualValues(t, 0, stat.LastEnd)
	assert.EqualValues(t, 1, stat.FormatVersion)
}

func TestOpenRingStore_PreservesExistingHeaderAcrossReopen(t *testing.T) {
	fs := newMemFS()
	clock := newFakeClock(1000)
	s := openTestStore(t, fs, "ring.log", 116, clock)
	_, err := s.Append("hello", LevelInfo)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened := openTestStore(t, fs, "ring.log", 999, clock)
	defer reopened.Close()

	stat, err := reopened.Stat()
	require.NoError(t, err)
	assert.EqualValues(t, 100, stat.BodySize, "existing bodySize survives even though MaxBytes changed on reopen")
	assert.NotZero(t, stat.LastEnd)
}

// TestRingStore_AppendTailBasic covers S1: three appends come back from Tail
// newest first.
func TestRingStore_AppendTailBasic(t *testing.T) {
	fs := newMemFS()
	clock := newFakeClock(1_700_000_000_000)
	s := openTestStore(t, fs, "ring.log", 1040, clock)
	defer s.Close()

	for _, msg := range []string{"first", "second", "third"} {
		clock.Advance(1)
		_, err := s.Append(msg, LevelInfo)
		require.NoError(t, err)
	}

	recs, err := s.Tail(10)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "third", recs[0].Message)
	assert.Equal(t, "second", recs[1].Message)
	assert.Equal(t, "first", recs[2].Message)
}

// TestRingStore_WrapAround covers S2: once the ring has wrapped, the oldest
// record is silently evicted and Tail only ever returns what is still live.
func TestRingStore_WrapAround(t *testing.T) {
	fs := newMemFS()
	clock := newFakeClock(0)
	// bodySize 30 fits exactly two 15-byte records ("r1".."r3" are all
	// minPayloadLen+2 = 11 byte payloads, so frameOverhead+11 = 15 bytes).
	s := openTestStore(t, fs, "ring.log", 16+30, clock)
	defer s.Close()

	for _, msg := range []string{"r1", "r2", "r3"} {
		clock.Advance(1)
		n, err := s.Append(msg, LevelInfo)
		require.NoError(t, err)
		assert.EqualValues(t, 15, n)
	}

	recs, err := s.Tail(10)
	require.NoError(t, err)
	require.Len(t, recs, 2, "r1 was evicted by the wrap; only r2 and r3 remain")
	assert.Equal(t, "r3", recs[0].Message)
	assert.Equal(t, "r2", recs[1].Message)
}

// TestRingStore_SinceCutoff covers S3: Since stops at (and excludes) the
// first record whose timestamp precedes the cutoff.
func TestRingStore_SinceCutoff(t *testing.T) {
	fs := newMemFS()
	clock := newFakeClock(1000)
	s := openTestStore(t, fs, "ring.log", 1040, clock)
	defer s.Close()

	clock.Set(1000)
	_, err := s.Append("old", LevelInfo)
	require.NoError(t, err)
	clock.Set(2000)
	_, err = s.Append("boundary", LevelInfo)
	require.NoError(t, err)
	clock.Set(3000)
	_, err = s.Append("new", LevelInfo)
	require.NoError(t, err)

	recs, err := s.Since(2000, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "new", recs[0].Message)
	assert.Equal(t, "boundary", recs[1].Message)
}

// TestRingStore_CorruptionStopsScanWithPartialResult covers S4: a mangled
// frame in the middle of the body terminates the reverse scan without
// returning an error, keeping every record newer than the corruption.
func TestRingStore_CorruptionStopsScanWithPartialResult(t *testing.T) {
	fs := newMemFS()
	clock := newFakeClock(0)
	s := openTestStore(t, fs, "ring.log", 16+100, clock)
	defer s.Close()

	for _, msg := range []string{"r1", "r2", "r3"} {
		clock.Advance(1)
		_, err := s.Append(msg, LevelInfo)
		require.NoError(t, err)
	}

	// r1 occupies body bytes [0,15), r2 [15,30), r3 [30,45). Flip the first
	// byte of r2's trailing length prefix (body offset 28) so it no longer
	// matches its leading prefix.
	const recordSize = int64(15)
	corruptBodyOffset := recordSize + (recordSize - int64(lengthPrefixSize))
	fs.file("ring.log").corrupt(int64(headerSize)+corruptBodyOffset, 0xFF)

	recs, err := s.Tail(10)
	require.NoError(t, err, "corruption must never surface as an error")
	require.Len(t, recs, 1, "scan stops at the corrupted r2, keeping only r3")
	assert.Equal(t, "r3", recs[0].Message)
}

func TestRingStore_OversizedRecordRejectedWithoutError(t *testing.T) {
	fs := newMemFS()
	s := openTestStore(t, fs, "ring.log", 16+20, newFakeClock(0))
	defer s.Close()

	n, err := s.Append(strings.Repeat("x", 100), LevelInfo)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	stat, err := s.Stat()
	require.NoError(t, err)
	assert.EqualValues(t, 0, stat.LastEnd, "a rejected append must not move lastEnd")
}

// TestRingStore_RecordExactlyFillingBody is the oversize-boundary pathology:
// a record whose recordSize equals bodySize exactly must be accepted, since
// it still fits alongside its own length prefixes with zero bytes to spare.
func TestRingStore_RecordExactlyFillingBody(t *testing.T) {
	fs := newMemFS()
	// payload "exact" (5 bytes) -> payloadLen = minPayloadLen+5 = 14,
	// recordSize = frameOverhead+14 = 18. bodySize set to exactly 18.
	s := openTestStore(t, fs, "ring.log", 16+18, newFakeClock(5))
	defer s.Close()

	n, err := s.Append("exact", LevelInfo)
	require.NoError(t, err)
	assert.EqualValues(t, 18, n)

	recs, err := s.Tail(1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "exact", recs[0].Message)
}

func TestRingStore_TailOnEmptyStoreReturnsNoRecords(t *testing.T) {
	fs := newMemFS()
	s := openTestStore(t, fs, "ring.log", 116, newFakeClock(0))
	defer s.Close()

	recs, err := s.Tail(5)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
