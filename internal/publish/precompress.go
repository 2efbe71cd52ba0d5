package publish

import (
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// GzipSuffix is appended to the output name of a precompressed sibling.
const GzipSuffix = ".gz"

// gzipContent compresses r at best compression. The header carries no name
// and no modification time so identical input yields identical output.
func gzipContent(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(zw, r); err != nil {
		_ = zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func extensionSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(e)), ".")
		if e != "" {
			set[e] = struct{}{}
		}
	}
	return set
}
