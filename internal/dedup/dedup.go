// Package dedup decides whether a topic or a generated article already exists in the store.
package dedup

import (
	"blogsmith/internal/config"
	"blogsmith/internal/core"
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicate is returned when any enabled predicate finds an existing article.
var ErrDuplicate = errors.New("article already exists")

// Predicate names, reported in the wrapped ErrDuplicate.
const (
	PredicateRawTitle       = "raw title"
	PredicateGeneratedTitle = "generated title"
	PredicateSourceURL      = "source url"
)

// Lookup is the slice of the article store the gate needs
type Lookup interface {
	ExistsByTitle(ctx context.Context, title string) (bool, error)
	ExistsContentContaining(ctx context.Context, s string) (bool, error)
}

// Gate runs the configured duplicate predicates against the store.
type Gate struct {
	store  Lookup
	checks config.Dedup
}

// NewGate creates a gate with the given predicates enabled
func NewGate(store Lookup, checks config.Dedup) *Gate {
	return &Gate{store: store, checks: checks}
}

// AllChecks enables every predicate.
func AllChecks() config.Dedup {
	return config.Dedup{RawTitle: true, GeneratedTitle: true, SourceURL: true}
}

// CheckTopic runs the pre-generation predicates: raw title, then source URL.
func (g *Gate) CheckTopic(ctx context.Context, topic core.Topic) error {
	if g.checks.RawTitle {
		if err := g.byTitle(ctx, topic.NormalizedTitle(), PredicateRawTitle); err != nil {
			return err
		}
	}
	if g.checks.SourceURL {
		if err := g.CheckSourceURL(ctx, topic.URL); err != nil {
			return err
		}
	}
	return nil
}

// CheckSourceURL reports a duplicate when url already appears in stored content.
func (g *Gate) CheckSourceURL(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	found, err := g.store.ExistsContentContaining(ctx, url)
	if err != nil {
		return fmt.Errorf("source url lookup failed: %w", err)
	}
	if found {
		return fmt.Errorf("%w: %s", ErrDuplicate, PredicateSourceURL)
	}
	return nil
}

// CheckGenerated runs the post-generation title predicate.
func (g *Gate) CheckGenerated(ctx context.Context, title string) error {
	if !g.checks.GeneratedTitle {
		return nil
	}
	return g.byTitle(ctx, strings.TrimSpace(title), PredicateGeneratedTitle)
}

func (g *Gate) byTitle(ctx context.Context, title, predicate string) error {
	if title == "" {
		return nil
	}
	found, err := g.store.ExistsByTitle(ctx, title)
	if err != nil {
		return fmt.Errorf("%s lookup failed: %w", predicate, err)
	}
	if found {
		return fmt.Errorf("%w: %s", ErrDuplicate, predicate)
	}
	return nil
}
