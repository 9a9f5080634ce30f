package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Glebradost/ctfhub/models"
	"github.com/lib/pq"
)

var (
	ErrUploadNotFound         = errors.New("upload not found")
	ErrUploadKeyConflict      = errors.New("upload object key conflict")
	ErrUploadChallengeInvalid = errors.New("upload challenge conflict or invalid")
)

type UploadRepository interface {
	Create(ctx context.Context, upload *models.Upload) error
	GetByID(ctx context.Context, id int) (*models.Upload, error)
	ListByChallengeID(ctx context.Context, challengeID int) ([]models.Upload, error)
	Delete(ctx context.Context, id int) error
}

type postgresUploadRepository struct {
	db *sql.DB
}

func NewPostgresUploadRepository(db *sql.DB) UploadRepository {
	return &postgresUploadRepository{db: db}
}

func (r *postgresUploadRepository) Create(ctx context.Context, upload *models.Upload) error {
	query := `
		INSERT INTO uploads (challenge_id, uploader_id, filename, object_key, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		upload.ChallengeID,
		upload.UploaderID,
		upload.Filename,
		upload.ObjectKey,
		upload.ContentType,
		upload.SizeBytes,
	).Scan(&upload.ID, &upload.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "uploads_object_key_key" {
					return ErrUploadKeyConflict
				}
			case "23503":
				if pqErr.Constraint == "uploads_challenge_id_fkey" {
					return ErrUploadChallengeInvalid
				}
			}
		}
		return err
	}
	return nil
}

func (r *postgresUploadRepository) GetByID(ctx context.Context, id int) (*models.Upload, error) {
	query := `
		SELECT id, challenge_id, uploader_id, filename, object_key, content_type, size_bytes, created_at
		FROM uploads
		WHERE id = $1`

	upload := &models.Upload{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&upload.ID,
		&upload.ChallengeID,
		&upload.UploaderID,
		&upload.Filename,
		&upload.ObjectKey,
		&upload.ContentType,
		&upload.SizeBytes,
		&upload.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUploadNotFound
		}
		return nil, fmt.Errorf("failed to scan upload: %w", err)
	}
	return upload, nil
}

func (r *postgresUploadRepository) ListByChallengeID(ctx context.Context, challengeID int) ([]models.Upload, error) {
	query := `
		SELECT id, challenge_id, uploader_id, filename, object_key, content_type, size_bytes, created_at
		FROM uploads
		WHERE challenge_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	uploads := make([]models.Upload, 0)
	for rows.Next() {
		var upload models.Upload
		scanErr := rows.Scan(
			&upload.ID,
			&upload.ChallengeID,
			&upload.UploaderID,
			&upload.Filename,
			&upload.ObjectKey,
			&upload.ContentType,
			&upload.SizeBytes,
			&upload.CreatedAt,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		uploads = append(uploads, upload)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return uploads, nil
}

func (r *postgresUploadRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM uploads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUploadNotFound)
}
