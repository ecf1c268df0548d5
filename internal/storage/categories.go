package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pennybank/pennybank/internal/common"
	"github.com/pennybank/pennybank/internal/model"
)

func scanCategory(row interface{ Scan(...any) error }) (*model.Category, error) {
	var category model.Category
	if err := row.Scan(
		&category.ID, &category.Name, &category.Type,
		&category.ColorHex, &category.IsSystem,
	); err != nil {
		return nil, err
	}
	return &category, nil
}

// GetCategories returns all categories ordered by name.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryCategories(ctx, `
		SELECT id, name, type, color_hex, is_system
		FROM categories
		ORDER BY name`)
}

// GetCategoriesForTransactionType returns the categories valid for income or
// expense transactions; any other type returns all categories.
func (s *SQLiteStorage) GetCategoriesForTransactionType(ctx context.Context, txType model.TransactionType) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	switch txType {
	case model.TransactionTypeIncome:
		return s.queryCategories(ctx, `
			SELECT id, name, type, color_hex, is_system
			FROM categories
			WHERE type IN ('income','both')
			ORDER BY name`)
	case model.TransactionTypeExpense:
		return s.queryCategories(ctx, `
			SELECT id, name, type, color_hex, is_system
			FROM categories
			WHERE type IN ('expense','both')
			ORDER BY name`)
	default:
		return s.GetCategories(ctx)
	}
}

func (s *SQLiteStorage) queryCategories(ctx context.Context, query string, args ...any) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// GetCategoryByID returns one category, or common.ErrNotFound.
func (s *SQLiteStorage) GetCategoryByID(ctx context.Context, id int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	category, err := scanCategory(s.db.QueryRowContext(ctx, `
		SELECT id, name, type, color_hex, is_system
		FROM categories
		WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return category, nil
}

// CreateCategory inserts a new category and fills in its ID.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (name, type, color_hex, is_system)
		VALUES (?, ?, ?, ?)`,
		category.Name, category.Type, category.ColorHex, category.IsSystem)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("category %q: %w", category.Name, common.ErrDuplicateName)
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get category ID: %w", err)
	}
	category.ID = id

	slog.Info("created category", "name", category.Name, "id", id)
	return nil
}

// UpdateCategory persists changes to an existing category. System categories
// may be edited, just not deleted.
func (s *SQLiteStorage) UpdateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE categories
		SET name = ?, type = ?, color_hex = ?
		WHERE id = ?`,
		category.Name, category.Type, category.ColorHex, category.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("category %q: %w", category.Name, common.ErrDuplicateName)
		}
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

// DeleteCategory removes a category. Deleting a system category is an
// integrity-guard error.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	category, err := s.GetCategoryByID(ctx, id)
	if err != nil {
		return err
	}
	if category.IsSystem {
		return fmt.Errorf("category %q: %w", category.Name, common.ErrSystemCategory)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}
