package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Glebradost/ctfhub/models"
	"github.com/Glebradost/ctfhub/repositories"
	"github.com/Glebradost/ctfhub/storage"
)

type NoteInput struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type NoteService interface {
	CreateNote(ctx context.Context, eventID, challengeID, currentUserID int, input NoteInput) (*models.Note, error)
	ListNotes(ctx context.Context, eventID, challengeID, currentUserID int) ([]models.Note, error)
	UpdateNote(ctx context.Context, eventID, challengeID, noteID, currentUserID int, input NoteInput) (*models.Note, error)
	DeleteNote(ctx context.Context, eventID, challengeID, noteID, currentUserID int) error
}

type noteService struct {
	noteRepo      repositories.NoteRepository
	challengeRepo repositories.ChallengeRepository
	gate          *MembershipGate
	uploader      storage.FileUploader
}

func NewNoteService(
	noteRepo repositories.NoteRepository,
	challengeRepo repositories.ChallengeRepository,
	gate *MembershipGate,
	uploader storage.FileUploader,
) NoteService {
	return &noteService{
		noteRepo:      noteRepo,
		challengeRepo: challengeRepo,
		gate:          gate,
		uploader:      uploader,
	}
}

func (s *noteService) resolveChallenge(ctx context.Context, eventID, challengeID, currentUserID int) (*models.TeamMember, error) {
	challenge, err := s.challengeRepo.GetByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, repositories.ErrChallengeNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to get challenge %d: %w", challengeID, err)
	}
	if challenge.EventID != eventID {
		return nil, ErrChallengeNotFound
	}
	return s.gate.RequireMember(ctx, currentUserID, challenge.TeamID)
}

// resolveNote additionally checks the note sits under the claimed
// challenge; a note addressed through the wrong path reads as absent.
func (s *noteService) resolveNote(ctx context.Context, eventID, challengeID, noteID, currentUserID int) (*models.Note, *models.TeamMember, error) {
	member, err := s.resolveChallenge(ctx, eventID, challengeID, currentUserID)
	if err != nil {
		return nil, nil, err
	}

	note, err := s.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, repositories.ErrNoteNotFound) {
			return nil, nil, ErrNoteNotFound
		}
		return nil, nil, fmt.Errorf("failed to get note %d: %w", noteID, err)
	}
	if note.ChallengeID != challengeID {
		return nil, nil, ErrNoteNotFound
	}
	return note, member, nil
}

func (s *noteService) CreateNote(ctx context.Context, eventID, challengeID, currentUserID int, input NoteInput) (*models.Note, error) {
	if input.Title == "" {
		return nil, ErrNoteTitleRequired
	}

	if _, err := s.resolveChallenge(ctx, eventID, challengeID, currentUserID); err != nil {
		return nil, err
	}

	note := &models.Note{
		ChallengeID: challengeID,
		AuthorID:    currentUserID,
		Title:       input.Title,
		Body:        input.Body,
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		if errors.Is(err, repositories.ErrNoteChallengeInvalid) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	return note, nil
}

func (s *noteService) ListNotes(ctx context.Context, eventID, challengeID, currentUserID int) ([]models.Note, error) {
	if _, err := s.resolveChallenge(ctx, eventID, challengeID, currentUserID); err != nil {
		return nil, err
	}

	notes, err := s.noteRepo.ListByChallengeID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes of challenge %d: %w", challengeID, err)
	}
	for i := range notes {
		populateUserDetails(notes[i].Author, s.uploader)
	}
	return notes, nil
}

// UpdateNote is allowed for the note's author and for team managers.
func (s *noteService) UpdateNote(ctx context.Context, eventID, challengeID, noteID, currentUserID int, input NoteInput) (*models.Note, error) {
	if input.Title == "" {
		return nil, ErrNoteTitleRequired
	}

	note, member, err := s.resolveNote(ctx, eventID, challengeID, noteID, currentUserID)
	if err != nil {
		return nil, err
	}
	if note.AuthorID != currentUserID && !member.Role.CanManage() {
		return nil, ErrTeamRoleInsufficient
	}

	note.Title = input.Title
	note.Body = input.Body
	if err := s.noteRepo.Update(ctx, note); err != nil {
		if errors.Is(err, repositories.ErrNoteNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to update note %d: %w", noteID, err)
	}
	return note, nil
}

func (s *noteService) DeleteNote(ctx context.Context, eventID, challengeID, noteID, currentUserID int) error {
	note, member, err := s.resolveNote(ctx, eventID, challengeID, noteID, currentUserID)
	if err != nil {
		return err
	}
	if note.AuthorID != currentUserID && !member.Role.CanManage() {
		return ErrTeamRoleInsufficient
	}

	if err := s.noteRepo.Delete(ctx, noteID); err != nil {
		if errors.Is(err, repositories.ErrNoteNotFound) {
			return ErrNoteNotFound
		}
		return fmt.Errorf("failed to delete note %d: %w", noteID, err)
	}
	return nil
}
