package tags

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/phrasebot/pkg/models"
	"github.com/google/uuid"
)

const maxResolveAttempts = 3

// Store is the tag storage the resolver needs
type Store interface {
	FindByOwnerAndName(ctx context.Context, owner uuid.UUID, name string) (*models.Tag, error)
	Create(ctx context.Context, tag *models.Tag) error
	ListNamesByOwner(ctx context.Context, owner uuid.UUID) ([]string, error)
}

// Resolver turns user-supplied tag names into persisted, owner-scoped tags
type Resolver struct {
	store Store
}

// NewResolver creates a resolver on top of the given store
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Normalize returns the canonical form of a tag name
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Resolve returns the owner's tag with the normalized name, creating it if needed.
// Concurrent callers resolving the same name converge on one row.
func (r *Resolver) Resolve(ctx context.Context, owner uuid.UUID, rawName string) (models.Tag, error) {
	name := Normalize(rawName)
	if name == "" {
		return models.Tag{}, fmt.Errorf("%w: tag name must not be blank", models.ErrValidationFailed)
	}

	for attempt := 0; attempt < maxResolveAttempts; attempt++ {
		existing, err := r.store.FindByOwnerAndName(ctx, owner, name)
		if err != nil {
			return models.Tag{}, err
		}
		if existing != nil {
			return *existing, nil
		}

		tag := models.Tag{TagName: name, OwnerUserAccountID: owner}
		err = r.store.Create(ctx, &tag)
		if errors.Is(err, models.ErrDuplicateKey) {
			// Someone else created it first; read their row.
			continue
		}
		if err != nil {
			return models.Tag{}, err
		}
		return tag, nil
	}

	return models.Tag{}, fmt.Errorf("could not resolve tag %q after %d attempts", name, maxResolveAttempts)
}

// ResolveAll resolves every name, dropping duplicates after normalization.
// The result keeps the order in which names first appear.
func (r *Resolver) ResolveAll(ctx context.Context, owner uuid.UUID, rawNames []string) ([]models.Tag, error) {
	seen := make(map[string]bool, len(rawNames))
	resolved := make([]models.Tag, 0, len(rawNames))
	for _, raw := range rawNames {
		name := Normalize(raw)
		if seen[name] {
			continue
		}
		seen[name] = true

		tag, err := r.Resolve(ctx, owner, name)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, tag)
	}
	return resolved, nil
}

// ListTags returns the default vocabulary merged with the owner's own tags,
// deduplicated and sorted
func (r *Resolver) ListTags(ctx context.Context, owner uuid.UUID) ([]string, error) {
	owned, err := r.store.ListNamesByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(models.DefaultTags)+len(owned))
	for _, name := range models.DefaultTags {
		set[Normalize(name)] = struct{}{}
	}
	for _, name := range owned {
		set[Normalize(name)] = struct{}{}
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
