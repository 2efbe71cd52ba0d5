// Package core provides the domain models for publishing build resources.
//
// # Design Principles
//
// All structures in this package adhere to the following constraints:
//
//  1. A resource's output name depends only on its bytes (content-addressed
//     mode) or on its source path (basename mode), never on timestamps or
//     host-specific data.
//  2. Handles are immutable once constructed.
//  3. Failures carry one of four kinds so callers can decide what to abort.
//
// # Core Types
//
// ResourceHandle: the bytes of one input resource plus where it came from.
// PublishedArtifact: the output-side record of a published resource.
// Reference: a deferred expression resolving to the artifact at runtime.
// Namer: computes strong names and output names.
// ResourceLocator: maps a declared resource name onto source roots.
package core
