//go:build !windows

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
package mmap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Open memory-maps filePath read-only, starting at offset (must be
// page-aligned) for length bytes. A zero length maps to the end of file.
func Open(filePath string, offset, length int64) (*File, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", filePath, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to get file info for %q: %w", filePath, err)
	}
	fileSize := fi.Size()

	if fileSize == 0 {
		f.Close()
		return nil, fmt.Errorf("file %q is empty, cannot mmap", filePath)
	}
	if offset < 0 {
		f.Close()
		return nil, fmt.Errorf("offset cannot be negative: %d", offset)
	}
	if offset >= fileSize {
		f.Close()
		return nil, fmt.Errorf("offset %d is beyond file size %d", offset, fileSize)
	}

	mappedLength := length
	if mappedLength == 0 {
		mappedLength = fileSize - offset
	}
	if offset+mappedLength > fileSize {
		f.Close()
		return nil, fmt.Errorf("requested mapping (offset %d + length %d) extends beyond file size %d", offset, mappedLength, fileSize)
	}

	pageSize := int64(unix.Getpagesize())
	if offset%pageSize != 0 {
		f.Close()
		return nil, fmt.Errorf("offset %d is not page-aligned (page size: %d)", offset, pageSize)
	}

	data, err := unix.Mmap(int(f.Fd()), offset, int(mappedLength), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to mmap file %q at offset %d with length %d: %w", filePath, offset, mappedLength, err)
	}

	return &File{
		Data:         data,
		OSFile:       f,
		FileSize:     fileSize,
		MappedOffset: offset,
		MappedLength: mappedLength,
	}, nil
}

// Close unmaps the memory region and closes the underlying file.
func (mf *File) Close() error {
	var err error
	if mf.Data != nil {
		if uerr := unix.Munmap(mf.Data); uerr != nil {
			err = fmt.Errorf("failed to munmap: %w", uerr)
		}
		mf.Data = nil
	}

	if mf.OSFile != nil {
		if cerr := mf.OSFile.Close(); cerr != nil {
			if err != nil {
				return fmt.Errorf("failed to munmap (%w) and close file (%v)", err, cerr)
			}
			return fmt.Errorf("failed to close file: %w", cerr)
		}
		mf.OSFile = nil
	}
	return err
}
