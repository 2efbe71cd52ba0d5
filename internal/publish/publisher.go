// Package publish copies resources into a build's output namespace under
// content-addressed or basename output names, at most once per name.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	slogcontext "github.com/veqryn/slog-context"

	"cachebundle/internal/core"
)

// CollisionPolicy decides what happens when two resources with different
// content map to the same basename-mode output name.
type CollisionPolicy string

const (
	// KeepFirst keeps whichever resource created the name first and drops the
	// rest with a warning. This matches the historical generator behaviour.
	KeepFirst CollisionPolicy = "keep-first"
	// FailOnCollision turns the collision into an invalid configuration error.
	FailOnCollision CollisionPolicy = "error"
)

// ParseCollisionPolicy validates a policy name. "" selects KeepFirst.
func ParseCollisionPolicy(raw string) (CollisionPolicy, error) {
	switch p := CollisionPolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return KeepFirst, nil
	case KeepFirst, FailOnCollision:
		return p, nil
	default:
		return "", core.InvalidConfigf("unknown collision policy %q (expected keep-first|error)", raw)
	}
}

// Options tune a Publisher.
type Options struct {
	// BaseURLExpr prefixes every reference expression. Defaults to core.DefaultBaseURLExpr.
	BaseURLExpr string

	// Precompress lists extensions (without dot) that also get a .gz sibling.
	Precompress []string

	// CollisionPolicy applies to basename mode only.
	CollisionPolicy CollisionPolicy
}

// Publisher turns resource handles into published artifacts.
type Publisher struct {
	namer       *core.Namer
	store       Store
	ns          *OutputNamespace
	opts        Options
	precompress map[string]struct{}
}

// New creates a Publisher. A nil namespace gets a fresh one.
func New(store Store, namer *core.Namer, ns *OutputNamespace, opts Options) *Publisher {
	if ns == nil {
		ns = NewOutputNamespace()
	}
	if namer == nil {
		namer = core.NewNamer("")
	}
	if opts.CollisionPolicy == "" {
		opts.CollisionPolicy = KeepFirst
	}
	return &Publisher{
		namer:       namer,
		store:       store,
		ns:          ns,
		opts:        opts,
		precompress: extensionSet(opts.Precompress),
	}
}

// Namespace returns the output namespace this publisher records into.
func (p *Publisher) Namespace() *OutputNamespace {
	return p.ns
}

// Publish computes the output name for h, writes its bytes into the store
// unless the name already exists, and returns the artifact.
//
// A write failure returns core.ErrIO; the name is then not recorded, so
// nothing in the namespace refers to a missing file. There is no retry.
// Precompressed siblings are recorded in the namespace under <name>.gz.
func (p *Publisher) Publish(ctx context.Context, h core.ResourceHandle, contentAddressed bool) (core.PublishedArtifact, error) {
	if err := ctx.Err(); err != nil {
		return core.PublishedArtifact{}, err
	}
	logger := slogcontext.FromCtx(ctx)

	name, strong := p.namer.OutputName(h, contentAddressed)
	mine := claim{Source: h.SourcePath, Digest: strong}

	owner, created, err := p.ns.createOnce(name, mine, func() error {
		return p.create(ctx, h, name)
	})
	if err != nil {
		if errors.Is(err, core.ErrInvalidConfiguration) {
			return core.PublishedArtifact{}, err
		}
		return core.PublishedArtifact{}, core.IOError(h.SourcePath, name, "unable to copy resource", err)
	}

	if created {
		logger.Log(ctx, slog.LevelDebug, fmt.Sprintf("Copied %s to %s", h.SourcePath, name),
			slog.String("resource", h.SourcePath),
			slog.String("output", name),
			slog.Int64("size", h.Size()),
		)
	} else if owner.Digest != strong {
		// Only reachable in basename mode: equal content-addressed names imply equal digests.
		if p.opts.CollisionPolicy == FailOnCollision {
			return core.PublishedArtifact{}, collisionError(h, name, owner)
		}
		logger.Log(ctx, slog.LevelWarn, "basename collision, keeping first resource",
			slog.String("resource", h.SourcePath),
			slog.String("kept", owner.Source),
			slog.String("output", name),
		)
	}

	mediaType := core.MediaTypeByName(name)
	if mediaType == "" {
		mediaType = core.MediaType(name, h.Bytes())
	}

	return core.PublishedArtifact{
		SourcePath: h.SourcePath,
		OutputName: name,
		Digest:     strong,
		Size:       h.Size(),
		MediaType:  mediaType,
		Written:    created,
		Reference:  core.NewReference(p.opts.BaseURLExpr, name),
	}, nil
}

// create writes a new output name. A configured gzip sibling is written
// first, so a failure never leaves a primary file the namespace does not
// know about.
func (p *Publisher) create(ctx context.Context, h core.ResourceHandle, name string) error {
	if _, ok := p.precompress[strings.ToLower(h.Extension)]; ok {
		if err := p.createSibling(ctx, h, name); err != nil {
			return err
		}
	}
	return p.store.Create(ctx, name, h.Reader())
}

// createSibling claims <name>.gz in the namespace like any other output
// name. A sibling name already taken by different content is a collision.
func (p *Publisher) createSibling(ctx context.Context, h core.ResourceHandle, name string) error {
	gz, err := gzipContent(h.Reader())
	if err != nil {
		return fmt.Errorf("compressing: %w", err)
	}
	gzName := name + GzipSuffix
	mine := claim{Source: h.SourcePath, Digest: p.namer.StrongName(gz)}

	owner, _, err := p.ns.createOnce(gzName, mine, func() error {
		return p.store.Create(ctx, gzName, bytes.NewReader(gz))
	})
	if err != nil {
		return err
	}
	if owner.Digest == mine.Digest {
		return nil
	}
	if p.opts.CollisionPolicy == FailOnCollision {
		return collisionError(h, gzName, owner)
	}
	slogcontext.FromCtx(ctx).Log(ctx, slog.LevelWarn, "precompressed name already taken, skipping gzip sibling",
		slog.String("resource", h.SourcePath),
		slog.String("kept", owner.Source),
		slog.String("output", gzName),
	)
	return nil
}

func collisionError(h core.ResourceHandle, name string, owner claim) error {
	return &core.Error{
		Kind:       core.ErrInvalidConfiguration,
		Resource:   h.SourcePath,
		OutputName: name,
		Message:    fmt.Sprintf("output name already taken by %s with different content", owner.Source),
	}
}
