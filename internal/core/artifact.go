package core

import "strconv"

// DefaultBaseURLExpr is the Go expression emitted in front of every output
// name when no other base URL expression is configured. The generated code
// expects the bundle package to provide a ModuleBaseURL function.
const DefaultBaseURLExpr = "ModuleBaseURL()"

// PublishedArtifact is the output-side record of one published resource.
type PublishedArtifact struct {
	// SourcePath is the handle's source path.
	SourcePath string

	// OutputName is unique within the output namespace.
	OutputName string

	// Digest is the strong name of the content, computed in both naming modes.
	Digest string

	// Size is the content length in bytes.
	Size int64

	// MediaType is inferred from the output name, falling back to content sniffing.
	MediaType string

	// Written reports whether this call performed the physical write.
	// It is false when the name already existed in the namespace.
	Written bool

	// Reference locates the artifact at runtime.
	Reference Reference
}

// Reference is a deferred location: a base URL known only at runtime
// combined with the published output name.
type Reference struct {
	BaseURLExpr string
	OutputName  string
}

// NewReference builds a Reference, defaulting the base URL expression.
func NewReference(baseURLExpr, outputName string) Reference {
	if baseURLExpr == "" {
		baseURLExpr = DefaultBaseURLExpr
	}
	return Reference{BaseURLExpr: baseURLExpr, OutputName: outputName}
}

// Expression renders the reference as a Go expression, e.g.
//
//	ModuleBaseURL() + "0F3A...cache.js"
func (r Reference) Expression() string {
	return r.BaseURLExpr + " + " + strconv.Quote(r.OutputName)
}

func (r Reference) String() string {
	return r.Expression()
}
