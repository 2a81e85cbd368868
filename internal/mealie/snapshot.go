package mealie

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ppiankov/flagaudit/internal/model"
	"github.com/ppiankov/flagaudit/internal/util"
)

// Snapshot is an offline copy of everything an audit reads
type Snapshot struct {
	Recipes    []model.Recipe   `json:"recipes"`
	Tags       []model.Tag      `json:"tags"`
	Categories []model.Category `json:"categories"`
}

// SnapshotSource serves a snapshot file in place of a live server
type SnapshotSource struct {
	snapshot Snapshot
}

// LoadSnapshot reads a snapshot written by SaveSnapshot (or by hand)
func LoadSnapshot(path string) (*SnapshotSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}

	return &SnapshotSource{snapshot: snap}, nil
}

// NewSnapshotSource serves an in-memory snapshot
func NewSnapshotSource(snap Snapshot) *SnapshotSource {
	return &SnapshotSource{snapshot: snap}
}

// SaveSnapshot writes snap as indented JSON, replacing path atomically
func SaveSnapshot(path string, snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := util.WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Recipes returns the requested recipes, or all of them when slugs is empty.
// An unknown slug is an error wrapping model.ErrNotFound.
func (s *SnapshotSource) Recipes(ctx context.Context, slugs []string) ([]model.Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(slugs) == 0 {
		out := make([]model.Recipe, len(s.snapshot.Recipes))
		copy(out, s.snapshot.Recipes)
		return out, nil
	}

	bySlug := make(map[string]model.Recipe, len(s.snapshot.Recipes))
	for _, r := range s.snapshot.Recipes {
		bySlug[r.Slug] = r
	}

	out := make([]model.Recipe, 0, len(slugs))
	for _, slug := range slugs {
		r, ok := bySlug[slug]
		if !ok {
			return nil, fmt.Errorf("recipe %s: %w", slug, model.ErrNotFound)
		}
		out = append(out, r)
	}
	return out, nil
}

// Tags returns the snapshot's tags
func (s *SnapshotSource) Tags(ctx context.Context) ([]model.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]model.Tag(nil), s.snapshot.Tags...), nil
}

// Categories returns the snapshot's categories
func (s *SnapshotSource) Categories(ctx context.Context) ([]model.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]model.Category(nil), s.snapshot.Categories...), nil
}
