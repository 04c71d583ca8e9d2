package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	drafts "github.com/goliatone/go-drafts"
	"github.com/google/uuid"
)

// ErrETagMismatch indicates a concurrent update was detected on save.
var ErrETagMismatch = errors.New("state: etag mismatch")

// Ref identifies one persisted snapshot for one domain.
type Ref struct {
	Domain string
	Key    string
}

// Identifier returns the deterministic storage key for the reference.
func (r Ref) Identifier() (string, error) {
	if r.Domain == "" {
		return "", fmt.Errorf("state: domain is required")
	}
	if r.Key == "" {
		return r.Domain, nil
	}
	return fmt.Sprintf("%s/%s", r.Domain, r.Key), nil
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads and saves one snapshot per reference.
type Store interface {
	Load(ctx context.Context, ref Ref) (snapshot any, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot any, meta Meta) (Meta, error)
}

// Resolver runs draft recipes against stored snapshots.
type Resolver struct {
	Store    Store
	Producer *drafts.Producer
}

func (r Resolver) producer() *drafts.Producer {
	if r.Producer != nil {
		return r.Producer
	}
	return drafts.NewProducer()
}

// Resolve loads the overlays stored under keys (weakest first) and merges
// them onto defaults with structural sharing. Missing keys are skipped.
func (r Resolver) Resolve(ctx context.Context, domain string, defaults any, keys ...string) (any, error) {
	if r.Store == nil {
		return nil, fmt.Errorf("state: store is required")
	}
	if domain == "" {
		return nil, fmt.Errorf("state: domain is required")
	}

	overlays := make([]any, 0, len(keys))
	for _, key := range keys {
		snapshot, _, ok, err := r.Store.Load(ctx, Ref{Domain: domain, Key: key})
		if err != nil {
			return nil, fmt.Errorf("state: load %q key %q: %w", domain, key, err)
		}
		if !ok {
			continue
		}
		overlays = append(overlays, snapshot)
	}
	if len(overlays) == 0 {
		return defaults, nil
	}
	return r.producer().Merge(defaults, overlays...)
}

// Mutate loads the snapshot at ref, runs recipe against a draft of it, and
// saves the produced value. The forward patch list is returned alongside the
// new metadata; a non-empty meta.ETag enforces optimistic concurrency.
func (r Resolver) Mutate(ctx context.Context, ref Ref, meta Meta, recipe drafts.Recipe) (any, drafts.Patches, Meta, error) {
	if r.Store == nil {
		return nil, nil, Meta{}, fmt.Errorf("state: store is required")
	}
	if _, err := ref.Identifier(); err != nil {
		return nil, nil, Meta{}, err
	}
	if recipe == nil {
		return nil, nil, Meta{}, fmt.Errorf("state: recipe is required")
	}

	snapshot, loadedMeta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return nil, nil, Meta{}, fmt.Errorf("state: load %q: %w", ref.Domain, err)
	}
	if !ok {
		snapshot = map[string]any{}
		loadedMeta = Meta{}
	}

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return nil, nil, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	next, patches, _, err := r.producer().ProduceWithPatches(snapshot, recipe)
	if err != nil {
		return nil, nil, loadedMeta, err
	}

	saveMeta := mergeMeta(loadedMeta, meta)
	saveMeta.SnapshotID = uuid.NewString()
	saveMeta.ETag = uuid.NewString()
	saveMeta.UpdatedAt = time.Now()

	savedMeta, err := r.Store.Save(ctx, ref, next, saveMeta)
	if err != nil {
		return nil, nil, loadedMeta, fmt.Errorf("state: save %q: %w", ref.Domain, err)
	}
	return next, patches, savedMeta, nil
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
