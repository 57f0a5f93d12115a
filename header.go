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

const (
	// magic identifies a klog ring file: the ASCII bytes "KLOG".
	magic int32 = 0x4B4C4F47

	// headerSize is the fixed size, in bytes, of the file header.
	headerSize = 16

	magicOffset         = 0
	formatVersionOffset = magicOffset + 4
	bodySizeOffset      = formatVersionOffset + 4
	lastEndOffset       = bodySizeOffset + 4
)

// header is an in-memory mirror of the file's 16-byte header. It is read at
// the start of every Ring Store operation and never cached across
// operations, so external truncation or replacement of the file is
// tolerated.
type header struct {
	magic         int32
	formatVersion int32
	bodySize      int32
	lastEnd       int32
}

// encodeHeader serializes h into a fresh headerSize-byte buffer.
func encodeHeader(h header) []byte {
	buf := make([]byte, headerSize)
	binary.BigEndian.PutUint32(buf[magicOffset:], uint32(h.magic))
	binary.BigEndian.PutUint32(buf[formatVersionOffset:], uint32(h.formatVersion))
	binary.BigEndian.PutUint32(buf[bodySizeOffset:], uint32(h.bodySize))
	binary.BigEndian.PutUint32(buf[lastEndOffset:], uint32(h.lastEnd))
	return buf
}

// decodeHeader parses a headerSize-byte buffer into a header.
func decodeHeader(buf []byte) header {
	return header{
		magic:         int32(binary.BigEndian.Uint32(buf[magicOffset:])),
		formatVersion: int32(binary.BigEndian.Uint32(buf[formatVersionOffset:])),
		bodySize:      int32(binary.BigEndian.Uint32(buf[bodySizeOffset:])),
		lastEnd:       int32(binary.BigEndian.Uint32(buf[lastEndOffset:])),
	}
}
