// Package postgres provides a PostgreSQL implementation of the
// gatedcontent.Repository interface using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/previewpro/gated-content/pkg/gatedcontent"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements gatedcontent.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) gatedcontent.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) gatedcontent.Repository {
	return &Repository{db: pool}
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("content item already exists")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return gatedcontent.ErrContentNotFound
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) CreateContent(ctx context.Context, item *gatedcontent.ContentItem) error {
	query := `
		INSERT INTO content_items (
			id, owner_id, storage_backend, object_key, title, blur_level,
			cta_text, price, button_color, file_name, file_size, mime_type,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(ctx, query,
		item.ID, item.OwnerID, item.StorageBackend, item.ObjectKey,
		item.Title, item.BlurLevel, item.CTAText, item.Price,
		item.ButtonColor, item.FileName, item.FileSize, item.MimeType,
		item.CreatedAt)

	if err != nil {
		return r.handlePostgresError("create content item", err)
	}

	return nil
}

func (r *Repository) GetContent(ctx context.Context, id uuid.UUID) (*gatedcontent.ContentItem, error) {
	query := `
        SELECT id, owner_id, storage_backend, object_key, title, blur_level,
               cta_text, price, button_color, file_name, file_size, mime_type,
               created_at
        FROM content_items WHERE id = $1`

	var item gatedcontent.ContentItem
	err := r.db.QueryRow(ctx, query, id).Scan(
		&item.ID, &item.OwnerID, &item.StorageBackend, &item.ObjectKey,
		&item.Title, &item.BlurLevel, &item.CTAText, &item.Price,
		&item.ButtonColor, &item.FileName, &item.FileSize, &item.MimeType,
		&item.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, gatedcontent.ErrContentNotFound
		}
		return nil, r.handlePostgresError("get content item", err)
	}

	return &item, nil
}

func (r *Repository) ListContentByOwner(ctx context.Context, ownerID uuid.UUID) ([]*gatedcontent.ContentItem, error) {
	query := `
        SELECT id, owner_id, storage_backend, object_key, title, blur_level,
               cta_text, price, button_color, file_name, file_size, mime_type,
               created_at
        FROM content_items
        WHERE owner_id = $1
        ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, r.handlePostgresError("list content items", err)
	}
	defer rows.Close()

	var items []*gatedcontent.ContentItem
	for rows.Next() {
		var item gatedcontent.ContentItem
		if err := rows.Scan(
			&item.ID, &item.OwnerID, &item.StorageBackend, &item.ObjectKey,
			&item.Title, &item.BlurLevel, &item.CTAText, &item.Price,
			&item.ButtonColor, &item.FileName, &item.FileSize, &item.MimeType,
			&item.CreatedAt); err != nil {
			return nil, r.handlePostgresError("scan content item", err)
		}
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("iterate content item rows", err)
	}

	return items, nil
}

func (r *Repository) DeleteContent(ctx context.Context, id uuid.UUID, requestingOwnerID uuid.UUID) error {
	// Ownership is checked before deletion so a wrong owner gets an
	// authorization error rather than a silent no-op.
	var ownerID uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT owner_id FROM content_items WHERE id = $1`, id).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return gatedcontent.ErrContentNotFound
		}
		return r.handlePostgresError("get content item owner", err)
	}
	if ownerID != requestingOwnerID {
		return gatedcontent.ErrNotOwner
	}

	_, err = r.db.Exec(ctx, `DELETE FROM content_items WHERE id = $1 AND owner_id = $2`, id, requestingOwnerID)
	if err != nil {
		return r.handlePostgresError("delete content item", err)
	}

	return nil
}
