package services

import "errors"

// Shared errors used across services and the HTTP error mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed     = errors.New("validation failed")
	ErrPasswordTooShort     = errors.New("password is too short")
	ErrTeamNameRequired     = errors.New("team name is required")
	ErrEventNameRequired    = errors.New("event name is required")
	ErrEventInvalidDates    = errors.New("event end date must be after start date")
	ErrChallengeNameRequired = errors.New("challenge name is required")
	ErrChallengeInvalidPoints = errors.New("challenge points must not be negative")
	ErrCommentRequired      = errors.New("comment must not be empty")
	ErrNoteTitleRequired    = errors.New("note title is required")
	ErrFilenameRequired     = errors.New("filename is required")
	ErrFileTooLarge         = errors.New("file is empty or exceeds the size limit")

	// Conflicts
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrUserUsernameConflict = errors.New("username is already in use")
	ErrTeamNameConflict     = errors.New("team name is already in use")
	ErrAlreadyTeamMember    = errors.New("user is already a member of this team")
	ErrTeamAlreadyInEvent   = errors.New("team is already registered for this event")
	ErrChallengeNameConflict = errors.New("a challenge with this name already exists for this team and event")
	ErrAlreadyAssigned      = errors.New("user is already assigned to this challenge")
	ErrChallengeAlreadySolved = errors.New("challenge is already solved")

	// Authentication and authorization
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrNotTeamMember          = errors.New("user is not a member of this team")
	ErrTeamRoleInsufficient   = errors.New("team owner or admin role required")
	ErrOwnerCannotBeRemoved   = errors.New("the team owner cannot be removed")
	ErrAdminRoleRequired      = errors.New("platform admin role required")

	// Entity-specific not-found variants (more context than ErrNotFound)
	ErrUserNotFound      = errors.New("user not found")
	ErrTeamNotFound      = errors.New("team not found")
	ErrEventNotFound     = errors.New("event not found")
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrAttemptNotFound   = errors.New("flag attempt not found")
	ErrNoteNotFound      = errors.New("note not found")
	ErrUploadNotFound    = errors.New("upload not found")
	ErrTeamNotInEvent    = errors.New("team is not registered for this event")
)
