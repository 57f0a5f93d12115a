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
	"os"
	"path/filepath"
)

// FileHandle is a positioned read/write/flush/resize handle over a single
// fixed-length file. Implementations must be safe for use by one Ring
// Store at a time; the Ring Store never shares a handle.
type FileHandle interface {
	Size() (int64, error)
	Resize(size int64) error
	ReadAt(absOffset int64, buf []byte) error
	WriteAt(absOffset int64, buf []byte) error
	Flush() error
	Close() error
}

// FS is the filesystem collaborator the Ring Store is opened against. The
// default is the process's native filesystem (osFS); tests may inject an
// in-memory implementation.
type FS interface {
	Exists(path string) bool
	CreateDirectories(path string) error
	CreateEmptyFile(path string) error
	OpenReadWrite(path string) (FileHandle, error)
}

// osFS is the default FS, backed directly by the os package.
type osFS struct{}

// NewOSFS returns the default, native-filesystem-backed FS.
func NewOSFS() FS { return osFS{} }

func (osFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (osFS) CreateDirectories(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (osFS) CreateEmptyFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	return f.Close()
}

func (osFS) OpenReadWrite(path string) (FileHandle, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	return &osFileHandle{f: f}, nil
}

type osFileHandle struct {
	f *os.File
}

func (h *osFileHandle) Size() (int64, error) {
	info, err := h.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (h *osFileHandle) Resize(size int64) error {
	return h.f.Truncate(size)
}

func (h *osFileHandle) ReadAt(absOffset int64, buf []byte) error {
	_, err := h.f.ReadAt(buf, absOffset)
	return err
}

func (h *osFileHandle) WriteAt(absOffset int64, buf []byte) error {
	_, err := h.f.WriteAt(buf, absOffset)
	return err
}

func (h *osFileHandle) Flush() error {
	return h.f.Sync()
}

func (h *osFileHandle) Close() error {
	return h.f.Close()
}

// ensureParentDir creates the parent directory of path if it does not exist.
func ensureParentDir(fs FS, path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return fs.CreateDirectories(dir)
}
