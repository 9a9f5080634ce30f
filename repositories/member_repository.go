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
	ErrMemberNotFound    = errors.New("team member not found")
	ErrMemberConflict    = errors.New("user is already a member of this team")
	ErrMemberTeamInvalid = errors.New("team member team conflict or invalid")
	ErrMemberUserInvalid = errors.New("team member user conflict or invalid")
)

type MemberRepository interface {
	Create(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error
	// GetByUserAndTeam is the single membership lookup every gated
	// operation goes through.
	GetByUserAndTeam(ctx context.Context, userID, teamID int) (*models.TeamMember, error)
	ListByTeamID(ctx context.Context, teamID int) ([]models.TeamMember, error)
	Delete(ctx context.Context, userID, teamID int) error
}

type postgresMemberRepository struct {
	db *sql.DB
}

func NewPostgresMemberRepository(db *sql.DB) MemberRepository {
	return &postgresMemberRepository{db: db}
}

func (r *postgresMemberRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMemberRepository) Create(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error {
	query := `
		INSERT INTO team_members (user_id, team_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		member.UserID,
		member.TeamID,
		member.Role,
	).Scan(&member.ID, &member.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "team_members_user_id_team_id_key" {
					return ErrMemberConflict
				}
			case "23503":
				if pqErr.Constraint == "team_members_team_id_fkey" {
					return ErrMemberTeamInvalid
				}
				if pqErr.Constraint == "team_members_user_id_fkey" {
					return ErrMemberUserInvalid
				}
			}
		}
		return err
	}
	return nil
}

func (r *postgresMemberRepository) GetByUserAndTeam(ctx context.Context, userID, teamID int) (*models.TeamMember, error) {
	query := `
		SELECT id, user_id, team_id, role, created_at
		FROM team_members
		WHERE user_id = $1 AND team_id = $2`

	member := &models.TeamMember{}
	err := r.db.QueryRowContext(ctx, query, userID, teamID).Scan(
		&member.ID,
		&member.UserID,
		&member.TeamID,
		&member.Role,
		&member.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to scan team member: %w", err)
	}
	return member, nil
}

func (r *postgresMemberRepository) ListByTeamID(ctx context.Context, teamID int) ([]models.TeamMember, error) {
	query := `
		SELECT
			m.id, m.user_id, m.team_id, m.role, m.created_at,
			u.id, u.username, u.email, u.password_hash, u.role, u.avatar_key, u.created_at, u.last_login_at
		FROM team_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.team_id = $1
		ORDER BY m.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.TeamMember, 0)
	for rows.Next() {
		var member models.TeamMember
		var user models.User
		scanErr := rows.Scan(
			&member.ID,
			&member.UserID,
			&member.TeamID,
			&member.Role,
			&member.CreatedAt,
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
		member.User = &user
		members = append(members, member)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *postgresMemberRepository) Delete(ctx context.Context, userID, teamID int) error {
	query := `DELETE FROM team_members WHERE user_id = $1 AND team_id = $2`
	result, err := r.db.ExecContext(ctx, query, userID, teamID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}
