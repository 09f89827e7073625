// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package bde

import (
	"io"
	"os"

	"github.com/ostafen/gobde/internal/fs"
	"github.com/ostafen/gobde/internal/mmap"
	"github.com/ostafen/gobde/pkg/reader"
)

// Source is the byte-source capability a Volume is opened over: a
// positioned read and a known size, nothing else (spec.md §4.A). A
// *bytes.Reader or any of the sources below satisfies it; an *os.File
// has no Size method and is wrapped by OpenFile instead.
type Source interface {
	ReadAt(p []byte, off int64) (int, error)
	Size() int64
}

// fileSource wraps an internal/fs.File (a plain file or, on Windows, a
// raw volume handle opened via internal/fs's Windows-specific Open) as
// a Source, following the teacher's OS-abstraction split in internal/fs.
type fileSource struct {
	f    fs.File
	size int64
}

// OpenFile opens path (a disk image, raw device, or Windows volume
// path such as "C:") for random-access reads. The path is normalized
// via internal/fs.NormalizeVolumePath first.
func OpenFile(path string) (Source, func() error, error) {
	f, err := fs.Open(fs.NormalizeVolumePath(path))
	if err != nil {
		return nil, nil, wrapError(KindReadFailed, err, "open %q", path)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, wrapError(KindReadFailed, err, "stat %q", path)
	}
	src := &fileSource{f: f, size: fi.Size()}
	return src, f.Close, nil
}

func (s *fileSource) ReadAt(p []byte, off int64) (int, error) {
	n, err := s.f.ReadAt(p, off)
	if err != nil && err != io.EOF {
		return n, wrapError(KindReadFailed, err, "read at %d", off)
	}
	return n, err
}

func (s *fileSource) Size() int64 { return s.size }

// MemorySource is an in-memory Source, used for embedded fixtures
// and by the .BEK / sub-container parsers to re-run the FVE metadata
// decoder over an extracted byte slice.
type MemorySource struct {
	data []byte
}

func NewMemorySource(data []byte) *MemorySource {
	return &MemorySource{data: data}
}

func (m *MemorySource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(m.data)) {
		return 0, newError(KindValueOutOfBounds, "offset %d out of range [0,%d]", off, len(m.data))
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *MemorySource) Size() int64 { return int64(len(m.data)) }

// MmapSource memory-maps a volume image file, avoiding a full in-heap
// copy for large images (spec.md §9 "file-backed, memory-backed,
// split-image").
type MmapSource struct {
	m *mmap.File
}

// OpenMmap memory-maps the whole of path read-only.
func OpenMmap(path string) (*MmapSource, error) {
	m, err := mmap.Open(path, 0, 0)
	if err != nil {
		return nil, wrapError(KindReadFailed, err, "mmap %q", path)
	}
	return &MmapSource{m: m}, nil
}

func (s *MmapSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(s.m.Data)) {
		return 0, newError(KindValueOutOfBounds, "offset %d out of range [0,%d]", off, len(s.m.Data))
	}
	n := copy(p, s.m.Data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s *MmapSource) Size() int64  { return int64(len(s.m.Data)) }
func (s *MmapSource) Close() error { return s.m.Close() }

// SplitSource presents a sequence of segments (e.g. a disk image split
// into fixed-size chunk files) as one contiguous Source, adapting the
// teacher's pkg/reader.MultiReadSeeker (built for sequential io.Reader
// chaining) onto the ReadAt contract BDE needs.
type SplitSource struct {
	mrs  *reader.MultiReadSeeker
	size int64
}

// NewSplitSource concatenates segments, each already an io.ReadSeeker
// of the given size, into a single virtual Source.
func NewSplitSource(segments []io.ReadSeeker, sizes []int64) (*SplitSource, error) {
	if len(segments) != len(sizes) {
		return nil, newError(KindInvalidArgument, "segments/sizes length mismatch: %d != %d", len(segments), len(sizes))
	}
	total := int64(0)
	for _, sz := range sizes {
		total += sz
	}
	sizesCopy := append([]int64(nil), sizes...)
	return &SplitSource{
		mrs:  reader.NewMultiReadSeeker(segments, sizesCopy),
		size: total,
	}, nil
}

// OpenSplitFiles opens a sequence of file paths in order as one
// contiguous Source (e.g. <image>.001, <image>.002, ...).
func OpenSplitFiles(paths []string) (*SplitSource, func() error, error) {
	segments := make([]io.ReadSeeker, len(paths))
	sizes := make([]int64, len(paths))
	files := make([]*os.File, len(paths))

	closeAll := func() error {
		var firstErr error
		for _, f := range files {
			if f == nil {
				continue
			}
			if err := f.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	for i, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeAll()
			return nil, nil, wrapError(KindReadFailed, err, "open segment %q", p)
		}
		fi, err := f.Stat()
		if err != nil {
			f.Close()
			closeAll()
			return nil, nil, wrapError(KindReadFailed, err, "stat segment %q", p)
		}
		files[i] = f
		segments[i] = f
		sizes[i] = fi.Size()
	}

	src, err := NewSplitSource(segments, sizes)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return src, closeAll, nil
}

func (s *SplitSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > s.size {
		return 0, newError(KindValueOutOfBounds, "offset %d out of range [0,%d]", off, s.size)
	}
	if _, err := s.mrs.Seek(off, io.SeekStart); err != nil {
		return 0, wrapError(KindReadFailed, err, "seek to %d", off)
	}
	n, err := io.ReadFull(s.mrs, p)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return n, wrapError(KindReadFailed, err, "read at %d", off)
	}
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return n, err
}

func (s *SplitSource) Size() int64 { return s.size }
