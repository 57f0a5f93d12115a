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

import "encoding/binary"

// RingStore is the persistent, fixed-size binary ring buffer described in
// §3.1/§3.2. The file handle is owned exclusively by one RingStore
// instance; there is no OS-level locking and no multi-process safety.
type RingStore struct {
	fh     FileHandle
	fs     FS
	path   string
	clock  Clock
	logger *diagLogger
}

// RingStoreOption customizes a RingStore at construction time.
type RingStoreOption func(*storeOptions)

type storeOptions struct {
	clock  Clock
	logger *diagLogger
}

// WithClock injects the Clock the RingStore uses to stamp new records.
func WithClock(c Clock) RingStoreOption {
	return func(o *storeOptions) { o.clock = c }
}

// WithDiagLogger injects the internal diagnostics logger. Pass a
// nopDiagLogger() to silence diagnostics entirely.
func WithDiagLogger(d *diagLogger) RingStoreOption {
	return func(o *storeOptions) { o.logger = d }
}

// OpenRingStore ensures path exists and is at least cfg.MaxBytes bytes
// (a smaller file is grown; a larger one is left as is), initializes the header if its magic does not match, and returns a ready
// RingStore. It preserves an existing file's on-disk bodySize/lastEnd
// verbatim when the magic already matches, even if cfg.MaxBytes has since
// changed.
func OpenRingStore(path string, cfg LogConfig, fs FS, opts ...RingStoreOption) (*RingStore, error) {
	o := storeOptions{clock: NewSystemClock(), logger: newDiagLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := ensureParentDir(fs, path); err != nil {
		return nil, ioErr("open", path, err)
	}
	if !fs.Exists(path) {
		if err := fs.CreateEmptyFile(path); err != nil {
			return nil, ioErr("open", path, err)
		}
	}

	fh, err := fs.OpenReadWrite(path)
	if err != nil {
		return nil, ioErr("open", path, err)
	}

	size, err := fh.Size()
	if err != nil {
		_ = fh.Close()
		return nil, ioErr("open", path, err)
	}
	if size < int64(cfg.MaxBytes) {
		if err := fh.Resize(int64(cfg.MaxBytes)); err != nil {
			_ = fh.Close()
			return nil, ioErr("open", path, err)
		}
	}

	s := &RingStore{fh: fh, fs: fs, path: path, clock: o.clock, logger: o.logger}

	h, err := s.readHeader()
	if err != nil {
		_ = fh.Close()
		return nil, ioErr("open", path, err)
	}
	if h.magic != magic {
		fresh := header{
			magic:         magic,
			formatVersion: cfg.FormatVersion,
			bodySize:      cfg.MaxBytes - headerSize,
			lastEnd:       0,
		}
		if err := s.writeHeaderFull(fresh); err != nil {
			_ = fh.Close()
			return nil, ioErr("open", path, err)
		}
	}

	return s, nil
}

func (s *RingStore) readHeader() (header, error) {
	buf := make([]byte, headerSize)
	if err := s.fh.ReadAt(0, buf); err != nil {
		return header{}, err
	}
	return decodeHeader(buf), nil
}

func (s *RingStore) writeHeaderFull(h header) error {
	if err := s.fh.WriteAt(0, encodeHeader(h)); err != nil {
		return err
	}
	return s.fh.Flush()
}

func (s *RingStore) writeLastEnd(newEnd int32) error {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(newEnd))
	if err := s.fh.WriteAt(int64(lastEndOffset), buf); err != nil {
		return err
	}
	return s.fh.Flush()
}

// mod is the positive-result modulo used throughout the wrap arithmetic.
func mod(a, n int64) int64 {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

// bodyReadAt reads len(buf) bytes starting at body-relative bodyOffset,
// splitting the read at the body boundary (bodySize) if necessary.
func (s *RingStore) bodyReadAt(bodyOffset, bodySize int64, buf []byte) error {
	offset := mod(bodyOffset, bodySize)
	firstLen := bodySize - offset
	if int64(len(buf)) <= firstLen {
		return s.fh.ReadAt(headerSize+offset, buf)
	}
	if err := s.fh.ReadAt(headerSize+offset, buf[:firstLen]); err != nil {
		return err
	}
	return s.fh.ReadAt(headerSize, buf[firstLen:])
}

// bodyWriteAt writes buf starting at body-relative bodyOffset, splitting at
// the body boundary if necessary.
func (s *RingStore) bodyWriteAt(bodyOffset, bodySize int64, buf []byte) error {
	offset := mod(bodyOffset, bodySize)
	firstLen := bodySize - offset
	if int64(len(buf)) <= firstLen {
		return s.fh.WriteAt(headerSize+offset, buf)
	}
	if err := s.fh.WriteAt(headerSize+offset, buf[:firstLen]); err != nil {
		return err
	}
	return s.fh.WriteAt(headerSize, buf[firstLen:])
}

// Append encodes message/level into a record frame and writes it at the
// current lastEnd, wrapping at the body boundary as needed. It returns the
// number of body bytes written, or 0 (with a nil error) if the record is
// too large to ever fit, per §4.1's oversized-record policy.
func (s *RingStore) Append(message string, level uint8) (int32, error) {
	msgBytes := []byte(message)
	payloadLen := minPayloadLen + len(msgBytes)

	h, err := s.readHeader()
	if err != nil {
		s.logger.ioFailure("append", s.path, err)
		return 0, ioErr("append", s.path, err)
	}
	bodySize := int64(h.bodySize)
	recordSize := int64(frameOverhead + payloadLen)
	if recordSize > bodySize {
		return 0, nil
	}

	frame := encodeFrame(s.clock.NowMillis(), level, msgBytes)
	lastEnd := int64(h.lastEnd)

	if err := s.bodyWriteAt(lastEnd, bodySize, frame); err != nil {
		s.logger.ioFailure("append", s.path, err)
		return 0, ioErr("append", s.path, err)
	}
	if err := s.fh.Flush(); err != nil {
		s.logger.ioFailure("append", s.path, err)
		return 0, ioErr("append", s.path, err)
	}

	newEnd := mod(lastEnd+recordSize, bodySize)
	if err := s.writeLastEnd(int32(newEnd)); err != nil {
		s.logger.ioFailure("append", s.path, err)
		return 0, ioErr("append", s.path, err)
	}

	s.logger.appendSummary(int32(recordSize), lastEnd+recordSize > bodySize)
	return int32(recordSize), nil
}

// readPrev reads the record immediately preceding body-relative cursor,
// following §4.1's tail algorithm: peek the trailing length prefix just
// before cursor, validate bounds, read the full frame, validate the dual
// prefixes, and decode the payload. ok is false on any corruption, bad
// bounds, or invalid UTF-8 — the caller must stop scanning, not error out.
func (s *RingStore) readPrev(cursor, bodySize int64) (rec LogRecord, recordStart, recordSize int64, ok bool, err error) {
	if bodySize <= 0 {
		// A damaged header with no usable body: nothing can be scanned.
		return LogRecord{}, 0, 0, false, nil
	}
	lenBuf := make([]byte, lengthPrefixSize)
	if err = s.bodyReadAt(cursor-lengthPrefixSize, bodySize, lenBuf); err != nil {
		return LogRecord{}, 0, 0, false, err
	}
	payloadLen := int(binary.BigEndian.Uint16(lenBuf))
	if payloadLen < minPayloadLen || int64(payloadLen) > bodySize {
		return LogRecord{}, 0, 0, false, nil
	}

	recordSize = int64(frameOverhead + payloadLen)
	recordStart = mod(cursor-int64(payloadLen)-frameOverhead, bodySize)

	frame := make([]byte, recordSize)
	if err = s.bodyReadAt(recordStart, bodySize, frame); err != nil {
		return LogRecord{}, 0, 0, false, err
	}

	leading := binary.BigEndian.Uint16(frame[0:lengthPrefixSize])
	trailing := binary.BigEndian.Uint16(frame[recordSize-lengthPrefixSize:])
	if int(leading) != payloadLen || int(trailing) != payloadLen {
		return LogRecord{}, 0, 0, false, nil
	}

	payload := frame[lengthPrefixSize : lengthPrefixSize+payloadLen]
	decoded, valid := decodePayload(payload)
	if !valid {
		return LogRecord{}, 0, 0, false, nil
	}

	return decoded, recordStart, recordSize, true, nil
}

// Tail returns up to count records, newest first.
func (s *RingStore) Tail(count int) ([]LogRecord, error) {
	h, err := s.readHeader()
	if err != nil {
		s.logger.ioFailure("tail", s.path, err)
		return nil, ioErr("tail", s.path, err)
	}
	bodySize := int64(h.bodySize)
	cursor := int64(h.lastEnd)

	out := make([]LogRecord, 0, count)
	var consumed int64
	for i := 0; i < count; i++ {
		rec, newCursor, recordSize, ok, err := s.readPrev(cursor, bodySize)
		if err != nil {
			s.logger.ioFailure("tail", s.path, err)
			return out, ioErr("tail", s.path, err)
		}
		if !ok {
			s.logger.corruptionStop("tail", "boundary-or-corruption", len(out))
			break
		}
		if consumed+recordSize > bodySize {
			// A fully-tiled ring has no gap: every byte is part of some
			// live record, so the trailing prefix one lap back looks just
			// as valid as the one before it. Stop rather than wrap around
			// and re-read records already returned.
			break
		}
		out = append(out, rec)
		consumed += recordSize
		cursor = newCursor
	}
	return out, nil
}

// Since returns up to limit records, newest first, stopping (without
// including the triggering record) at the first record whose timestamp
// precedes cutoffMillis.
func (s *RingStore) Since(cutoffMillis int64, limit int) ([]LogRecord, error) {
	h, err := s.readHeader()
	if err != nil {
		s.logger.ioFailure("since", s.path, err)
		return nil, ioErr("since", s.path, err)
	}
	bodySize := int64(h.bodySize)
	cursor := int64(h.lastEnd)

	out := make([]LogRecord, 0)
	var consumed int64
	for len(out) < limit {
		rec, newCursor, recordSize, ok, err := s.readPrev(cursor, bodySize)
		if err != nil {
			s.logger.ioFailure("since", s.path, err)
			return out, ioErr("since", s.path, err)
		}
		if !ok {
			s.logger.corruptionStop("since", "boundary-or-corruption", len(out))
			break
		}
		if rec.TimestampMillis < cutoffMillis {
			break
		}
		if consumed+recordSize > bodySize {
			// Same one-lap bound as Tail: a fully-tiled ring never
			// self-terminates via corruption, so bound it explicitly.
			break
		}
		out = append(out, rec)
		consumed += recordSize
		cursor = newCursor
	}
	return out, nil
}

// Stat returns a read-only projection of the current header. It performs
// no scan and cannot fail except on IO error.
func (s *RingStore) Stat() (StoreStats, error) {
	h, err := s.readHeader()
	if err != nil {
		return StoreStats{}, ioErr("stat", s.path, err)
	}
	return StoreStats{BodySize: h.bodySize, LastEnd: h.lastEnd, FormatVersion: h.formatVersion}, nil
}

// Close closes the underlying file handle.
func (s *RingStore) Close() error {
	if err := s.fh.Close(); err != nil {
		return ioErr("close", s.path, err)
	}
	return nil
}
