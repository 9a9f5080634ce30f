package services

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/Glebradost/ctfhub/models"
	"github.com/Glebradost/ctfhub/storage"
)

func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func populateUserDetails(user *models.User, uploader storage.FileUploader) {
	if user == nil {
		return
	}
	user.PasswordHash = ""
	if user.AvatarKey != nil && *user.AvatarKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*user.AvatarKey)
		if url != "" {
			user.AvatarURL = &url
		}
	}
}

func populateUploadURL(upload *models.Upload, uploader storage.FileUploader) {
	if upload == nil || uploader == nil || upload.ObjectKey == "" {
		return
	}
	url := uploader.GetPublicURL(upload.ObjectKey)
	if url != "" {
		upload.URL = &url
	}
}
