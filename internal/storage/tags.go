package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Veraticus/spice-dashboard/internal/common"
	"github.com/Veraticus/spice-dashboard/internal/model"
)

// SaveTag creates or updates a tag. A missing ID is generated.
func (s *SQLiteStorage) SaveTag(ctx context.Context, tag *model.Tag) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTag(tag); err != nil {
		return err
	}
	if tag.ID == "" {
		tag.ID = uuid.NewString()
	}
	tag.Name = strings.TrimSpace(tag.Name)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (id, name, color, icon) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			color = excluded.color,
			icon = excluded.icon
	`, tag.ID, tag.Name, tag.Color, tag.Icon)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("tag %q: %w", tag.Name, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to save tag: %w", err)
	}

	slog.Debug("saved tag", "id", tag.ID, "name", tag.Name)
	return nil
}

// GetTags returns the tag catalog ordered by name.
func (s *SQLiteStorage) GetTags(ctx context.Context) ([]model.Tag, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getTagsTx(ctx, s.db)
}

func (s *SQLiteStorage) getTagsTx(ctx context.Context, q queryable) ([]model.Tag, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, color, icon FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tags := []model.Tag{}
	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Color, &tag.Icon); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}
	return tags, nil
}
