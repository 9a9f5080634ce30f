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
	ErrAttemptNotFound         = errors.New("flag attempt not found")
	ErrAttemptChallengeInvalid = errors.New("flag attempt challenge conflict or invalid")
	ErrAttemptUserInvalid      = errors.New("flag attempt user conflict or invalid")
)

// AttemptRepository is the append-only submission ledger. Rows are
// inserted and read; the only mutation ever issued is an overwrite of
// the advisory comment column.
type AttemptRepository interface {
	Create(ctx context.Context, exec SQLExecutor, attempt *models.FlagAttempt) error
	GetByID(ctx context.Context, id int) (*models.FlagAttempt, error)
	ListByChallengeID(ctx context.Context, challengeID int) ([]models.FlagAttempt, error)
	UpdateComment(ctx context.Context, id int, comment string) error
	CountByEvent(ctx context.Context, eventID int) (int, error)
}

type postgresAttemptRepository struct {
	db *sql.DB
}

func NewPostgresAttemptRepository(db *sql.DB) AttemptRepository {
	return &postgresAttemptRepository{db: db}
}

func (r *postgresAttemptRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresAttemptRepository) Create(ctx context.Context, exec SQLExecutor, attempt *models.FlagAttempt) error {
	query := `
		INSERT INTO flag_attempts (challenge_id, user_id, flag_value, is_success, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		attempt.ChallengeID,
		attempt.UserID,
		attempt.FlagValue,
		attempt.IsSuccess,
		attempt.Comment,
	).Scan(&attempt.ID, &attempt.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "flag_attempts_challenge_id_fkey" {
				return ErrAttemptChallengeInvalid
			}
			if pqErr.Constraint == "flag_attempts_user_id_fkey" {
				return ErrAttemptUserInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresAttemptRepository) GetByID(ctx context.Context, id int) (*models.FlagAttempt, error) {
	query := `
		SELECT
			a.id, a.challenge_id, a.user_id, a.flag_value, a.is_success, a.comment, a.created_at,
			u.id, u.username, u.email, u.password_hash, u.role, u.avatar_key, u.created_at, u.last_login_at
		FROM flag_attempts a
		JOIN users u ON u.id = a.user_id
		WHERE a.id = $1`

	attempt := &models.FlagAttempt{}
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&attempt.ID,
		&attempt.ChallengeID,
		&attempt.UserID,
		&attempt.FlagValue,
		&attempt.IsSuccess,
		&attempt.Comment,
		&attempt.CreatedAt,
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.AvatarKey,
		&user.CreatedAt,
		&user.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to scan flag attempt: %w", err)
	}
	attempt.User = user
	return attempt, nil
}

func (r *postgresAttemptRepository) ListByChallengeID(ctx context.Context, challengeID int) ([]models.FlagAttempt, error) {
	query := `
		SELECT
			a.id, a.challenge_id, a.user_id, a.flag_value, a.is_success, a.comment, a.created_at,
			u.id, u.username, u.email, u.password_hash, u.role, u.avatar_key, u.created_at, u.last_login_at
		FROM flag_attempts a
		JOIN users u ON u.id = a.user_id
		WHERE a.challenge_id = $1
		ORDER BY a.created_at DESC, a.id DESC`

	rows, err := r.db.QueryContext(ctx, query, challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := make([]models.FlagAttempt, 0)
	for rows.Next() {
		var attempt models.FlagAttempt
		var user models.User
		scanErr := rows.Scan(
			&attempt.ID,
			&attempt.ChallengeID,
			&attempt.UserID,
			&attempt.FlagValue,
			&attempt.IsSuccess,
			&attempt.Comment,
			&attempt.CreatedAt,
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
		attempt.User = &user
		attempts = append(attempts, attempt)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *postgresAttemptRepository) UpdateComment(ctx context.Context, id int, comment string) error {
	query := `UPDATE flag_attempts SET comment = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, comment, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrAttemptNotFound)
}

func (r *postgresAttemptRepository) CountByEvent(ctx context.Context, eventID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM flag_attempts a
		JOIN challenges c ON c.id = a.challenge_id
		WHERE c.event_id = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
