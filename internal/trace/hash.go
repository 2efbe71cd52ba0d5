package trace

import "github.com/opencontainers/go-digest"

// ComputeTraceHash computes the TraceHash of a canonical trace encoding:
// sha256 over the bytes, hex-encoded. Empty input hashes to "".
func ComputeTraceHash(canonicalEncoding []byte) string {
	if len(canonicalEncoding) == 0 {
		return ""
	}
	return digest.SHA256.FromBytes(canonicalEncoding).Encoded()
}
