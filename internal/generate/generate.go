// Package generate runs a generation pass: it publishes the resources of
// every declared bundle and emits Go source implementing each bundle.
package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	slogcontext "github.com/veqryn/slog-context"
	"golang.org/x/sync/errgroup"

	"cachebundle/internal/bundle"
	"cachebundle/internal/config"
	"cachebundle/internal/core"
	"cachebundle/internal/publish"
	"cachebundle/internal/trace"
)

// DefaultJobs bounds bundle parallelism when Generator.Jobs is not positive.
const DefaultJobs = 4

// Generator orchestrates one generation pass.
type Generator struct {
	// Locator resolves declared resource names.
	Locator *core.ResourceLocator

	// Store receives published resources.
	Store publish.Store

	// Options tune the publisher.
	Options publish.Options

	// Properties are the build properties, read once per pass.
	Properties config.Properties

	// Sink receives trace events (optional).
	Sink trace.Sink

	// Jobs bounds how many bundles are processed at once.
	Jobs int
}

// New creates a Generator writing published resources into outputDir.
func New(loc *core.ResourceLocator, outputDir string, props config.Properties, opts publish.Options) *Generator {
	return &Generator{
		Locator:    loc,
		Store:      publish.NewDirStore(outputDir),
		Options:    opts,
		Properties: props,
		Jobs:       DefaultJobs,
	}
}

// BundleResult describes what happened to one bundle.
type BundleResult struct {
	Bundle bundle.Bundle

	// File is the generated source path; empty when Skipped.
	File string

	// Skipped is set when the bundle was already emitted in this pass.
	Skipped bool

	// Artifacts holds one entry per method, in declaration order. After a
	// failure it holds what was published before the failing method.
	Artifacts []core.PublishedArtifact

	// Err is the failure that aborted this bundle, if any.
	Err error
}

// Result is the outcome of a generation pass.
type Result struct {
	Algorithm        core.HashAlgorithm
	ContentAddressed bool

	// Bundles are ordered by package argument, then interface name.
	Bundles []BundleResult

	// Outputs lists every output name the pass published, sorted.
	Outputs []string
}

// Run performs a generation pass over the package directories dirs.
//
// The flow:
//  1. Read the naming properties; a bad value aborts before anything is written.
//  2. Scan every package for bundles.
//  3. Process bundles in parallel, bounded by Jobs: resolve and publish every
//     method's resource, then emit the bundle's source.
//
// Distinct bundles whose generated sources map to one file fail with
// core.ErrMalformedMetadata before anything is published for them.
//
// A missing resource, malformed metadata or an I/O failure aborts only the
// owning bundle; the other bundles still run and all bundle errors are
// joined. An invalid configuration (such as a basename collision under the
// error policy) cancels the whole pass. Artifacts already published stay in
// the store and are listed in the returned Result.
func (g *Generator) Run(ctx context.Context, dirs []string) (*Result, error) {
	contentAddressed, err := g.Properties.EnableRenaming()
	if err != nil {
		return nil, err
	}
	alg, err := g.Properties.HashAlgorithm()
	if err != nil {
		return nil, err
	}
	if g.Locator == nil || g.Store == nil {
		return nil, core.InvalidConfigf("generator needs a resource locator and a store")
	}

	var bundles []bundle.Bundle
	for _, dir := range dirs {
		found, err := bundle.Scan(dir)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", dir, err)
		}
		bundles = append(bundles, found...)
	}

	logger := slogcontext.FromCtx(ctx)
	logger.Log(ctx, slog.LevelInfo, "generation pass",
		slog.Int("bundles", len(bundles)),
		slog.String("algorithm", string(alg)),
		slog.Bool("contentAddressed", contentAddressed),
	)

	pub := publish.New(g.Store, core.NewNamer(alg), nil, g.Options)
	emitted := &emittedSources{}
	clashes := fileClashes(bundles)
	results := make([]BundleResult, len(bundles))

	jobs := g.Jobs
	if jobs <= 0 {
		jobs = DefaultJobs
	}
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(jobs)
	for i, b := range bundles {
		if err, ok := clashes[b.ID()]; ok {
			results[i] = BundleResult{Bundle: b, Err: err}
			continue
		}
		eg.Go(func() error {
			res, err := g.generateBundle(egCtx, pub, b, contentAddressed, emitted)
			res.Err = err
			results[i] = res
			if errors.Is(err, core.ErrInvalidConfiguration) {
				return err
			}
			return nil
		})
	}
	fatal := eg.Wait()

	res := &Result{
		Algorithm:        alg,
		ContentAddressed: contentAddressed,
		Bundles:          results,
		Outputs:          pub.Namespace().Names(),
	}
	if fatal != nil {
		return res, fatal
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return res, errors.Join(errs...)
}

func (g *Generator) generateBundle(ctx context.Context, pub *publish.Publisher, b bundle.Bundle, contentAddressed bool, emitted *emittedSources) (BundleResult, error) {
	res := BundleResult{Bundle: b}
	file := FileName(b.Interface)
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if !emitted.claim(b.ID()) {
		res.Skipped = true
		trace.SafeRecord(g.Sink, trace.Event{Kind: trace.EventBundleSkipped, Bundle: b.ID(), Output: file})
		return res, nil
	}

	logger := slogcontext.FromCtx(ctx).With(slog.String("bundle", b.ID()))
	ctx = slogcontext.NewCtx(ctx, logger)

	accessors := make([]Accessor, 0, len(b.Methods))
	for _, m := range b.Methods {
		h, err := g.Locator.Resolve(b.ResourceDir(), m.Resource)
		if err != nil {
			return res, fmt.Errorf("%s.%s (%s): %w", b.Interface, m.Name, m.Position, err)
		}
		art, err := pub.Publish(ctx, h, contentAddressed)
		if err != nil {
			return res, fmt.Errorf("%s.%s (%s): %w", b.Interface, m.Name, m.Position, err)
		}
		res.Artifacts = append(res.Artifacts, art)

		if art.Written {
			trace.SafeRecord(g.Sink, trace.Event{Kind: trace.EventOutputCreated, Output: art.OutputName})
		}
		trace.SafeRecord(g.Sink, trace.Event{
			Kind:   trace.EventResourcePublished,
			Bundle: b.ID(),
			Method: m.Name,
			Source: art.SourcePath,
			Output: art.OutputName,
		})
		accessors = append(accessors, Accessor{
			Method:     m.Name,
			Source:     art.SourcePath,
			Expression: art.Reference.Expression(),
		})
	}

	src, err := Emit(b, contentAddressed, accessors)
	if err != nil {
		return res, err
	}
	if err := publish.NewDirStore(b.Dir).Create(ctx, file, bytes.NewReader(src)); err != nil {
		return res, core.IOError(b.ID(), file, "unable to write generated source", err)
	}
	res.File = file
	trace.SafeRecord(g.Sink, trace.Event{Kind: trace.EventBundleGenerated, Bundle: b.ID(), Output: file})
	logger.Log(ctx, slog.LevelInfo, "generated bundle",
		slog.String("file", file),
		slog.Int("resources", len(accessors)),
	)
	return res, nil
}

// fileClashes maps the ID of every bundle whose generated source would
// land on the same file as another bundle's to a malformed metadata error.
// HTTPImages and HttpImages in one package both emit http_images_bundle.go.
func fileClashes(bundles []bundle.Bundle) map[string]error {
	owners := make(map[string][]string)
	for _, b := range bundles {
		path := filepath.Join(b.Dir, FileName(b.Interface))
		if !slices.Contains(owners[path], b.ID()) {
			owners[path] = append(owners[path], b.ID())
		}
	}
	clashes := make(map[string]error)
	for path, ids := range owners {
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)
		err := core.Malformedf("bundles %s all generate %s", strings.Join(ids, ", "), filepath.Base(path))
		for _, id := range ids {
			clashes[id] = err
		}
	}
	return clashes
}

// emittedSources is the generated-source namespace of one pass.
type emittedSources struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// claim reports whether id was not emitted yet and marks it.
func (e *emittedSources) claim(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.seen[id]; ok {
		return false
	}
	if e.seen == nil {
		e.seen = make(map[string]struct{})
	}
	e.seen[id] = struct{}{}
	return true
}

// Artifacts flattens every published artifact of the pass, ordered by
// output name then source path.
func (r *Result) Artifacts() []core.PublishedArtifact {
	var out []core.PublishedArtifact
	for _, b := range r.Bundles {
		out = append(out, b.Artifacts...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OutputName != out[j].OutputName {
			return out[i].OutputName < out[j].OutputName
		}
		return out[i].SourcePath < out[j].SourcePath
	})
	return out
}
