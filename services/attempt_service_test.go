package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Glebradost/ctfhub/models"
	"github.com/Glebradost/ctfhub/repositories"
)

func challengeRepoReturning(challenge *models.Challenge) *fakeChallengeRepo {
	return &fakeChallengeRepo{
		getByIDFn: func(ctx context.Context, id int) (*models.Challenge, error) {
			if challenge == nil || challenge.ID != id {
				return nil, repositories.ErrChallengeNotFound
			}
			c := *challenge
			return &c, nil
		},
	}
}

func TestListAttempts_RequiresMembership(t *testing.T) {
	challenge := &models.Challenge{ID: 7, EventID: 3, TeamID: 5}
	attemptRepo := &fakeAttemptRepo{
		listByChallengeIDFn: func(ctx context.Context, challengeID int) ([]models.FlagAttempt, error) {
			return []models.FlagAttempt{
				{ID: 2, ChallengeID: 7, UserID: 11, IsSuccess: true, User: &models.User{ID: 11, Username: "alice"}},
				{ID: 1, ChallengeID: 7, UserID: 12, IsSuccess: false, User: &models.User{ID: 12, Username: "bob"}},
			}, nil
		},
	}

	svc := NewAttemptService(attemptRepo, challengeRepoReturning(challenge), memberGate(11, 5, models.MemberRoleMember), nil)

	attempts, err := svc.ListAttempts(context.Background(), 3, 7, 11)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, "alice", attempts[0].User.Username)

	_, err = svc.ListAttempts(context.Background(), 3, 7, 99)
	assert.ErrorIs(t, err, ErrNotTeamMember)
}

func TestGetAttempt_CrossChallengeReadsAsAbsent(t *testing.T) {
	challenge := &models.Challenge{ID: 7, EventID: 3, TeamID: 5}
	attemptRepo := &fakeAttemptRepo{
		getByIDFn: func(ctx context.Context, id int) (*models.FlagAttempt, error) {
			if id != 42 {
				return nil, repositories.ErrAttemptNotFound
			}
			return &models.FlagAttempt{ID: 42, ChallengeID: 7, UserID: 11}, nil
		},
	}

	svc := NewAttemptService(attemptRepo, challengeRepoReturning(challenge), memberGate(11, 5, models.MemberRoleMember), nil)

	attempt, err := svc.GetAttempt(context.Background(), 3, 7, 42, 11)
	require.NoError(t, err)
	assert.Equal(t, 42, attempt.ID)

	// Same attempt addressed under the wrong challenge.
	_, err = svc.GetAttempt(context.Background(), 3, 8, 42, 11)
	assert.ErrorIs(t, err, ErrAttemptNotFound)

	// Unknown attempt id.
	_, err = svc.GetAttempt(context.Background(), 3, 7, 43, 11)
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestAnnotateAttempt_OverwritesCommentOnly(t *testing.T) {
	challenge := &models.Challenge{ID: 7, EventID: 3, TeamID: 5}
	var storedComment string
	attemptRepo := &fakeAttemptRepo{
		getByIDFn: func(ctx context.Context, id int) (*models.FlagAttempt, error) {
			return &models.FlagAttempt{ID: 42, ChallengeID: 7, UserID: 11, FlagValue: "flag{x}", IsSuccess: false}, nil
		},
		updateCommentFn: func(ctx context.Context, id int, comment string) error {
			storedComment = comment
			return nil
		},
	}

	svc := NewAttemptService(attemptRepo, challengeRepoReturning(challenge), memberGate(11, 5, models.MemberRoleMember), nil)

	attempt, err := svc.AnnotateAttempt(context.Background(), 3, 7, 42, 11, "tried rot13 first")
	require.NoError(t, err)
	assert.Equal(t, "tried rot13 first", storedComment)
	require.NotNil(t, attempt.Comment)
	assert.Equal(t, "tried rot13 first", *attempt.Comment)
	assert.Equal(t, "flag{x}", attempt.FlagValue)
	assert.False(t, attempt.IsSuccess)
}

func TestAnnotateAttempt_EmptyCommentRejected(t *testing.T) {
	svc := NewAttemptService(&fakeAttemptRepo{}, &fakeChallengeRepo{}, memberGate(11, 5, models.MemberRoleMember), nil)
	_, err := svc.AnnotateAttempt(context.Background(), 3, 7, 42, 11, "")
	assert.ErrorIs(t, err, ErrCommentRequired)
}
