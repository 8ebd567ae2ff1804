// Package config carries the driver's run-time knobs (spec.md §6
// "Configuration flags"). Grounded on internal/manifest's schema-
// versioned, explicit-zero-value-default style: a flat struct with
// JSON tags rather than a functional-options constructor.
package config

import "encoding/json"

// Schema tags a serialized Options document, the same convention
// internal/manifest's SchemaVersion constant follows.
const Schema = "backend.config/v1"

// DefaultRewriteLimit matches driver.DefaultRewriteLimit; duplicated
// here (rather than importing internal/driver) to keep config free of
// a dependency on the package it configures.
const DefaultRewriteLimit = 10000

// Options is the optimizer's external configuration surface. The zero
// value is valid: every field's meaning at zero is documented below
// rather than requiring callers to build it through a constructor.
type Options struct {
	Schema string `json:"schema"`

	// RewriteLimit caps Optimize's iteration count per declaration
	// before CodeOptNonTermination is raised. Zero means
	// DefaultRewriteLimit.
	RewriteLimit int `json:"rewriteLimit,omitempty"`

	// Trace makes the CLI print a one-line summary (module count and
	// effective rewrite limit) to stderr before the fold starts; no
	// lookups or per-module progress are logged (spec.md §6).
	Trace bool `json:"trace,omitempty"`
}

// Default returns the zero-configured Options with Schema stamped and
// RewriteLimit resolved to its default.
func Default() Options {
	return Options{Schema: Schema, RewriteLimit: DefaultRewriteLimit}
}

// EffectiveRewriteLimit resolves RewriteLimit's zero-means-default
// convention.
func (o Options) EffectiveRewriteLimit() int {
	if o.RewriteLimit <= 0 {
		return DefaultRewriteLimit
	}
	return o.RewriteLimit
}

// Load parses a JSON-encoded Options document, defaulting RewriteLimit
// when the input omits it.
func Load(data []byte) (Options, error) {
	o := Default()
	if err := json.Unmarshal(data, &o); err != nil {
		return Options{}, err
	}
	if o.RewriteLimit <= 0 {
		o.RewriteLimit = DefaultRewriteLimit
	}
	return o, nil
}
