package core

import (
	"bytes"
	"io"
	"strings"
)

// NoExtension is the extension recorded for resources whose file name has no dot.
const NoExtension = "noext"

// ResourceHandle identifies one input resource.
//
// The byte content is copied on construction and never handed out for
// mutation, so a handle can be shared freely between goroutines.
type ResourceHandle struct {
	// SourcePath is the slash-separated location the resource was resolved from.
	SourcePath string

	// Extension is the part of the file name after its last dot,
	// or NoExtension when there is none. It may be empty ("style.").
	Extension string

	content []byte
}

// NewResourceHandle creates a handle for the given source path and content.
func NewResourceHandle(sourcePath string, content []byte) ResourceHandle {
	b := make([]byte, len(content))
	copy(b, content)
	return ResourceHandle{
		SourcePath: sourcePath,
		Extension:  ExtensionOf(sourcePath),
		content:    b,
	}
}

// Size returns the number of content bytes.
func (h ResourceHandle) Size() int64 {
	return int64(len(h.content))
}

// Reader returns a fresh reader over the content.
func (h ResourceHandle) Reader() io.Reader {
	return bytes.NewReader(h.content)
}

// Bytes returns a copy of the content.
func (h ResourceHandle) Bytes() []byte {
	b := make([]byte, len(h.content))
	copy(b, h.content)
	return b
}

// BaseName returns the final path segment of SourcePath.
func (h ResourceHandle) BaseName() string {
	return BaseName(h.SourcePath)
}

// BaseName returns everything after the last '/' of p, verbatim.
func BaseName(p string) string {
	return p[strings.LastIndexByte(p, '/')+1:]
}

// ExtensionOf derives the extension of a source path.
//
// Only the final path segment is considered, so "a.d/readme" has no extension.
func ExtensionOf(p string) string {
	base := BaseName(p)
	idx := strings.LastIndexByte(base, '.')
	if idx == -1 {
		return NoExtension
	}
	return base[idx+1:]
}
