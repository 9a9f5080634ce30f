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
	ErrNoteNotFound         = errors.New("note not found")
	ErrNoteChallengeInvalid = errors.New("note challenge conflict or invalid")
)

type NoteRepository interface {
	Create(ctx context.Context, note *models.Note) error
	GetByID(ctx context.Context, id int) (*models.Note, error)
	ListByChallengeID(ctx context.Context, challengeID int) ([]models.Note, error)
	Update(ctx context.Context, note *models.Note) error
	Delete(ctx context.Context, id int) error
}

type postgresNoteRepository struct {
	db *sql.DB
}

func NewPostgresNoteRepository(db *sql.DB) NoteRepository {
	return &postgresNoteRepository{db: db}
}

func (r *postgresNoteRepository) Create(ctx context.Context, note *models.Note) error {
	query := `
		INSERT INTO notes (challenge_id, author_id, title, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		note.ChallengeID,
		note.AuthorID,
		note.Title,
		note.Body,
	).Scan(&note.ID, &note.CreatedAt, &note.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" && pqErr.Constraint == "notes_challenge_id_fkey" {
			return ErrNoteChallengeInvalid
		}
		return err
	}
	return nil
}

func (r *postgresNoteRepository) GetByID(ctx context.Context, id int) (*models.Note, error) {
	query := `
		SELECT id, challenge_id, author_id, title, body, created_at, updated_at
		FROM notes
		WHERE id = $1`

	note := &models.Note{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&note.ID,
		&note.ChallengeID,
		&note.AuthorID,
		&note.Title,
		&note.Body,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to scan note: %w", err)
	}
	return note, nil
}

func (r *postgresNoteRepository) ListByChallengeID(ctx context.Context, challengeID int) ([]models.Note, error) {
	query := `
		SELECT
			n.id, n.challenge_id, n.author_id, n.title, n.body, n.created_at, n.updated_at,
			u.id, u.username, u.email, u.password_hash, u.role, u.avatar_key, u.created_at, u.last_login_at
		FROM notes n
		JOIN users u ON u.id = n.author_id
		WHERE n.challenge_id = $1
		ORDER BY n.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]models.Note, 0)
	for rows.Next() {
		var note models.Note
		var user models.User
		scanErr := rows.Scan(
			&note.ID,
			&note.ChallengeID,
			&note.AuthorID,
			&note.Title,
			&note.Body,
			&note.CreatedAt,
			&note.UpdatedAt,
			&user.ID,
			&user.Username,
			&user.Email,
			&user.PasswordHash,
			&user.Role,
			&user.AvatarKey,
			&user.CreatedAt,
			&user.LastLoginAt,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		note.Author = &user
		notes = append(notes, note)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *postgresNoteRepository) Update(ctx context.Context, note *models.Note) error {
	query := `
		UPDATE notes SET
			title = $1,
			body = $2,
			updated_at = NOW()
		WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, note.Title, note.Body, note.ID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrNoteNotFound)
}

func (r *postgresNoteRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrNoteNotFound)
}
