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
	"encoding/binary"
	"unicode/utf8"
)

const (
	// lengthPrefixSize is the size, in bytes, of a single u16 payload-length prefix.
	lengthPrefixSize = 2
	// frameOverhead is the total bytes a frame spends on its two length prefixes.
	frameOverhead = 2 * lengthPrefixSize
	// minPayloadLen is 8 bytes of timestamp plus 1 byte of level, 0 message bytes.
	minPayloadLen = 8 + 1

	payloadTimestampOffset = 0
	payloadLevelOffset     = payloadTimestampOffset + 8
	payloadMessageOffset   = payloadLevelOffset + 1
)

// LogRecord is an immutable, decoded record produced by the Ring Store.
type LogRecord struct {
	TimestampMillis int64
	Level           uint8
	Message         string
}

// encodeFrame serializes timestampMillis/level/message into a complete
// record frame: leading length prefix, payload, trailing length prefix.
func encodeFrame(timestampMillis int64, level uint8, message []byte) []byte {
	payloadLen := minPayloadLen + len(message)
	frame := make([]byte, frameOverhead+payloadLen)

	binary.BigEndian.PutUint16(frame[0:], uint16(payloadLen))
	payload := frame[lengthPrefixSize : lengthPrefixSize+payloadLen]
	binary.BigEndian.PutUint64(payload[payloadTimestampOffset:], uint64(timestampMillis))
	payload[payloadLevelOffset] = level
	copy(payload[payloadMessageOffset:], message)
	binary.BigEndian.PutUint16(frame[lengthPrefixSize+payloadLen:], uint16(payloadLen))

	return frame
}

// decodePayload decodes the payload bytes (timestamp || level || message)
// of a validated frame into a LogRecord. It returns false if the message
// bytes are not valid UTF-8, in which case the caller must treat the frame
// as corrupt.
func decodePayload(payload []byte) (LogRecord, bool) {
	if len(payload) < minPayloadLen {
		return LogRecord{}, false
	}
	msgBytes := payload[payloadMessageOffset:]
	if !utf8.Valid(msgBytes) {
		return LogRecord{}, false
	}
	return LogRecord{
		TimestampMillis: int64(binary.BigEndian.Uint64(payload[payloadTimestampOffset:])),
		Level:           payload[payloadLevelOffset],
		Message:         string(msgBytes),
	}, true
}
