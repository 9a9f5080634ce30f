package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Glebradost/ctfhub/models"
	"github.com/Glebradost/ctfhub/repositories"
	"github.com/Glebradost/ctfhub/storage"
)

// maxUploadSize caps challenge attachments at 25 MB.
const maxUploadSize = 25 << 20

type UploadService interface {
	UploadFile(ctx context.Context, eventID, challengeID, currentUserID int, filename, contentType string, size int64, reader io.Reader) (*models.Upload, error)
	ListUploads(ctx context.Context, eventID, challengeID, currentUserID int) ([]models.Upload, error)
	DeleteUpload(ctx context.Context, eventID, challengeID, uploadID, currentUserID int) error
}

type uploadService struct {
	uploadRepo    repositories.UploadRepository
	challengeRepo repositories.ChallengeRepository
	gate          *MembershipGate
	uploader      storage.FileUploader
	logger        *slog.Logger
}

func NewUploadService(
	uploadRepo repositories.UploadRepository,
	challengeRepo repositories.ChallengeRepository,
	gate *MembershipGate,
	uploader storage.FileUploader,
	logger *slog.Logger,
) UploadService {
	return &uploadService{
		uploadRepo:    uploadRepo,
		challengeRepo: challengeRepo,
		gate:          gate,
		uploader:      uploader,
		logger:        logger,
	}
}

func (s *uploadService) resolveChallenge(ctx context.Context, eventID, challengeID, currentUserID int) (*models.TeamMember, error) {
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

func (s *uploadService) UploadFile(ctx context.Context, eventID, challengeID, currentUserID int, filename, contentType string, size int64, reader io.Reader) (*models.Upload, error) {
	if filename == "" {
		return nil, ErrFilenameRequired
	}
	if size <= 0 || size > maxUploadSize {
		return nil, ErrFileTooLarge
	}

	if _, err := s.resolveChallenge(ctx, eventID, challengeID, currentUserID); err != nil {
		return nil, err
	}

	// Object keys are random so a guessed URL never hits another
	// team's file. The original filename survives in the row only.
	key := fmt.Sprintf("challenges/%d/%s%s", challengeID, uuid.NewString(), filepath.Ext(filename))
	if _, err := s.uploader.Upload(ctx, key, contentType, reader); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	upload := &models.Upload{
		ChallengeID: challengeID,
		UploaderID:  currentUserID,
		Filename:    filename,
		ObjectKey:   key,
		ContentType: contentType,
		SizeBytes:   size,
	}
	if err := s.uploadRepo.Create(ctx, upload); err != nil {
		// The stored object is orphaned now; best effort cleanup.
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.Error("failed to delete orphaned object",
				slog.String("object_key", key), slog.Any("error", delErr))
		}
		if errors.Is(err, repositories.ErrUploadChallengeInvalid) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}

	populateUploadURL(upload, s.uploader)
	return upload, nil
}

func (s *uploadService) ListUploads(ctx context.Context, eventID, challengeID, currentUserID int) ([]models.Upload, error) {
	if _, err := s.resolveChallenge(ctx, eventID, challengeID, currentUserID); err != nil {
		return nil, err
	}

	uploads, err := s.uploadRepo.ListByChallengeID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads of challenge %d: %w", challengeID, err)
	}
	for i := range uploads {
		populateUploadURL(&uploads[i], s.uploader)
	}
	return uploads, nil
}

// DeleteUpload is allowed for the uploader and for team managers. The
// remote object goes first; if that fails the row stays so the file
// remains reachable and the delete can be retried.
func (s *uploadService) DeleteUpload(ctx context.Context, eventID, challengeID, uploadID, currentUserID int) error {
	member, err := s.resolveChallenge(ctx, eventID, challengeID, currentUserID)
	if err != nil {
		return err
	}

	upload, err := s.uploadRepo.GetByID(ctx, uploadID)
	if err != nil {
		if errors.Is(err, repositories.ErrUploadNotFound) {
			return ErrUploadNotFound
		}
		return fmt.Errorf("failed to get upload %d: %w", uploadID, err)
	}
	if upload.ChallengeID != challengeID {
		return ErrUploadNotFound
	}
	if upload.UploaderID != currentUserID && !member.Role.CanManage() {
		return ErrTeamRoleInsufficient
	}

	if err := s.uploader.Delete(ctx, upload.ObjectKey); err != nil {
		return fmt.Errorf("failed to delete stored object %s: %w", upload.ObjectKey, err)
	}
	if err := s.uploadRepo.Delete(ctx, uploadID); err != nil {
		if errors.Is(err, repositories.ErrUploadNotFound) {
			return ErrUploadNotFound
		}
		return fmt.Errorf("failed to delete upload %d: %w", uploadID, err)
	}
	return nil
}
