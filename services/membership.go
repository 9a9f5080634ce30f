package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Glebradost/ctfhub/models"
	"github.com/Glebradost/ctfhub/repositories"
)

// MembershipGate is the single authorization primitive shared by the
// challenge, solve, ledger, note and upload services. Every gated
// operation resolves the (user, team) membership row here instead of
// re-querying it ad hoc.
type MembershipGate struct {
	memberRepo repositories.MemberRepository
}

func NewMembershipGate(memberRepo repositories.MemberRepository) *MembershipGate {
	return &MembershipGate{memberRepo: memberRepo}
}

// RequireMember returns the membership row for (userID, teamID) or
// ErrNotTeamMember when none exists.
func (g *MembershipGate) RequireMember(ctx context.Context, userID, teamID int) (*models.TeamMember, error) {
	member, err := g.memberRepo.GetByUserAndTeam(ctx, userID, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return nil, ErrNotTeamMember
		}
		return nil, fmt.Errorf("failed to resolve membership of user %d in team %d: %w", userID, teamID, err)
	}
	return member, nil
}

// RequireManager returns the membership row only when the user holds
// the OWNER or ADMIN role in the team.
func (g *MembershipGate) RequireManager(ctx context.Context, userID, teamID int) (*models.TeamMember, error) {
	member, err := g.RequireMember(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}
	if !member.Role.CanManage() {
		return nil, ErrTeamRoleInsufficient
	}
	return member, nil
}
