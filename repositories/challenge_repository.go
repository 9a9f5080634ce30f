package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Glebradost/ctfhub/models"
	"github.com/lib/pq"
)

var (
	ErrChallengeNotFound       = errors.New("challenge not found")
	ErrChallengeNameConflict   = errors.New("challenge name conflict for this team and event")
	ErrChallengeTeamInvalid    = errors.New("challenge team conflict or invalid")
	ErrChallengeEventInvalid   = errors.New("challenge event conflict or invalid")
	ErrAssignmentNotFound      = errors.New("challenge assignment not found")
	ErrAssignmentConflict      = errors.New("user is already assigned to this challenge")
	ErrAssignmentUserInvalid   = errors.New("challenge assignment user conflict or invalid")
	ErrChallengeAlreadyUpdated = errors.New("challenge solved state already updated")
)

type ChallengeRepository interface {
	Create(ctx context.Context, challenge *models.Challenge) error
	GetByID(ctx context.Context, id int) (*models.Challenge, error)
	// GetByIDForUpdate locks the challenge row for the duration of the
	// caller's transaction, serializing concurrent solve attempts.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Challenge, error)
	ListByEventAndTeam(ctx context.Context, eventID, teamID int) ([]models.Challenge, error)
	Update(ctx context.Context, challenge *models.Challenge) error
	// MarkSolved performs the one-time solved transition. The
	// `solved = FALSE` guard makes the transition idempotent at the
	// database level; callers see ErrChallengeAlreadyUpdated when the
	// row was already flipped.
	MarkSolved(ctx context.Context, exec SQLExecutor, id int, solvedAt time.Time) error
	Delete(ctx context.Context, id int) error

	CreateAssignment(ctx context.Context, assignment *models.ChallengeAssignment) error
	ListAssignees(ctx context.Context, challengeID int) ([]models.ChallengeAssignment, error)

	CountByEvent(ctx context.Context, eventID int, onlySolved bool) (int, error)
}

type postgresChallengeRepository struct {
	db *sql.DB
}

func NewPostgresChallengeRepository(db *sql.DB) ChallengeRepository {
	return &postgresChallengeRepository{db: db}
}

func (r *postgresChallengeRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const challengeColumns = `id, name, category, points, flag, solved, solved_at, team_id, event_id, created_by, created_at`

func (r *postgresChallengeRepository) Create(ctx context.Context, challenge *models.Challenge) error {
	query := `
		INSERT INTO challenges (name, category, points, flag, team_id, event_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		challenge.Name,
		challenge.Category,
		challenge.Points,
		challenge.Flag,
		challenge.TeamID,
		challenge.EventID,
		challenge.CreatedBy,
	).Scan(&challenge.ID, &challenge.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "challenges_name_team_id_event_id_key" {
					return ErrChallengeNameConflict
				}
			case "23503":
				if pqErr.Constraint == "challenges_team_id_fkey" {
					return ErrChallengeTeamInvalid
				}
				if pqErr.Constraint == "challenges_event_id_fkey" {
					return ErrChallengeEventInvalid
				}
			}
		}
		return err
	}
	return nil
}

func (r *postgresChallengeRepository) GetByID(ctx context.Context, id int) (*models.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1`
	return r.scanChallenge(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresChallengeRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1 FOR UPDATE`
	return r.scanChallenge(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresChallengeRepository) ListByEventAndTeam(ctx context.Context, eventID, teamID int) ([]models.Challenge, error) {
	query := `
		SELECT ` + challengeColumns + `
		FROM challenges
		WHERE event_id = $1 AND team_id = $2
		ORDER BY category ASC, name ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	challenges := make([]models.Challenge, 0)
	for rows.Next() {
		var c models.Challenge
		scanErr := rows.Scan(
			&c.ID,
			&c.Name,
			&c.Category,
			&c.Points,
			&c.Flag,
			&c.Solved,
			&c.SolvedAt,
			&c.TeamID,
			&c.EventID,
			&c.CreatedBy,
			&c.CreatedAt,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		challenges = append(challenges, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return challenges, nil
}

func (r *postgresChallengeRepository) Update(ctx context.Context, challenge *models.Challenge) error {
	query := `
		UPDATE challenges SET
			name = $1,
			category = $2,
			points = $3,
			flag = $4
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query,
		challenge.Name,
		challenge.Category,
		challenge.Points,
		challenge.Flag,
		challenge.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" && pqErr.Constraint == "challenges_name_team_id_event_id_key" {
			return ErrChallengeNameConflict
		}
		return err
	}
	return checkAffectedRows(result, ErrChallengeNotFound)
}

func (r *postgresChallengeRepository) MarkSolved(ctx context.Context, exec SQLExecutor, id int, solvedAt time.Time) error {
	query := `
		UPDATE challenges
		SET solved = TRUE, solved_at = $1
		WHERE id = $2 AND solved = FALSE`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, solvedAt, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrChallengeAlreadyUpdated)
}

func (r *postgresChallengeRepository) Delete(ctx context.Context, id int) error {
	// Dependent rows (attempts, notes, uploads, assignments) go with
	// the ON DELETE CASCADE constraints.
	result, err := r.db.ExecContext(ctx, `DELETE FROM challenges WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrChallengeNotFound)
}

func (r *postgresChallengeRepository) CreateAssignment(ctx context.Context, assignment *models.ChallengeAssignment) error {
	query := `
		INSERT INTO challenge_assignments (challenge_id, user_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		assignment.ChallengeID,
		assignment.UserID,
	).Scan(&assignment.ID, &assignment.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "challenge_assignments_challenge_id_user_id_key" {
					return ErrAssignmentConflict
				}
			case "23503":
				if pqErr.Constraint == "challenge_assignments_challenge_id_fkey" {
					return ErrChallengeNotFound
				}
				if pqErr.Constraint == "challenge_assignments_user_id_fkey" {
					return ErrAssignmentUserInvalid
				}
			}
		}
		return err
	}
	return nil
}

func (r *postgresChallengeRepository) ListAssignees(ctx context.Context, challengeID int) ([]models.ChallengeAssignment, error) {
	query := `
		SELECT
			a.id, a.challenge_id, a.user_id, a.created_at,
			u.id, u.username, u.email, u.password_hash, u.role, u.avatar_key, u.created_at, u.last_login_at
		FROM challenge_assignments a
		JOIN users u ON u.id = a.user_id
		WHERE a.challenge_id = $1
		ORDER BY a.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]models.ChallengeAssignment, 0)
	for rows.Next() {
		var a models.ChallengeAssignment
		var user models.User
		scanErr := rows.Scan(
			&a.ID,
			&a.ChallengeID,
			&a.UserID,
			&a.CreatedAt,
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
		a.User = &user
		assignments = append(assignments, a)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *postgresChallengeRepository) CountByEvent(ctx context.Context, eventID int, onlySolved bool) (int, error) {
	query := `SELECT COUNT(*) FROM challenges WHERE event_id = $1`
	if onlySolved {
		query += ` AND solved = TRUE`
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresChallengeRepository) scanChallenge(row *sql.Row) (*models.Challenge, error) {
	c := &models.Challenge{}
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Category,
		&c.Points,
		&c.Flag,
		&c.Solved,
		&c.SolvedAt,
		&c.TeamID,
		&c.EventID,
		&c.CreatedBy,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to scan challenge: %w", err)
	}
	return c, nil
}
