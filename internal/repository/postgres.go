package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/RoGogDBD/gtryk-dashboard/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uploadsTable = "step_uploads"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// DB подмножество pgxpool.Pool, которое нужно журналу загрузок.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStorage журнал загруженных картинок шагов.
type PostgresStorage struct {
	db DB
}

func NewPostgresStorage(db DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

// InsertUpload сохраняет запись. Пустые ID и CreatedAt заполняются.
func (r *PostgresStorage) InsertUpload(ctx context.Context, u *models.Upload) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	query, args, err := insertUploadQuery(u)
	if err != nil {
		return fmt.Errorf("build insert upload: %w", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

// ListUploads возвращает последние загрузки, новые первыми. limit 0 снимает ограничение.
func (r *PostgresStorage) ListUploads(ctx context.Context, limit uint64) ([]models.Upload, error) {
	query, args, err := listUploadsQuery(limit)
	if err != nil {
		return nil, fmt.Errorf("build list uploads: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}
	defer rows.Close()

	var uploads []models.Upload
	for rows.Next() {
		var u models.Upload
		var id uuid.UUID
		if err := rows.Scan(&id, &u.FileName, &u.ImagePath, &u.StepName, &u.Description, &u.SizeBytes, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		u.ID = id.String()
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan uploads rows: %w", err)
	}
	return uploads, nil
}

func insertUploadQuery(u *models.Upload) (string, []any, error) {
	id, err := uuid.Parse(u.ID)
	if err != nil {
		return "", nil, fmt.Errorf("invalid UUID: %w", err)
	}
	return psql.Insert(uploadsTable).
		Columns("id", "file_name", "image_path", "step_name", "description", "size_bytes", "created_at").
		Values(id, u.FileName, u.ImagePath, u.StepName, u.Description, u.SizeBytes, u.CreatedAt).
		ToSql()
}

func listUploadsQuery(limit uint64) (string, []any, error) {
	q := psql.Select("id", "file_name", "image_path", "step_name", "description", "size_bytes", "created_at").
		From(uploadsTable).
		OrderBy("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q.ToSql()
}
