package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed      = errors.New("validation failed")
	ErrPasswordTooShort      = errors.New("password must be at least 8 characters")
	ErrEmailInvalid          = errors.New("email address is invalid")
	ErrEventNameTooShort     = errors.New("event name must be at least 3 characters")
	ErrEventInvalidDateRange = errors.New("event end date must not be before start date")
	ErrEventInvalidCapacity  = errors.New("event max participants must be positive")
	ErrEventInvalidStatusTransition = errors.New("invalid event status transition")
	ErrTeamNameRequired      = errors.New("team name is required")
	ErrTeamFull              = errors.New("team has reached its member limit")
	ErrTeamNotPublic         = errors.New("team does not accept public joins")
	ErrAlreadyInTeam         = errors.New("profile is already in a team for this event")
	ErrLeaderCannotLeave     = errors.New("team leader cannot leave while other members remain")
	ErrLeaderCannotBeRemoved = errors.New("team leader cannot be removed")
	ErrSubmissionNameRequired = errors.New("submission name is required")
	ErrSubmissionNotDraft     = errors.New("submission can only be changed while in draft")
	ErrSubmissionIncomplete   = errors.New("submission is missing required fields")
	ErrRepositoryURLInvalid   = errors.New("repository URL is not a valid URL")
	ErrScoreOutOfRange        = errors.New("evaluation scores must be between 0 and 10")
	ErrEventNotCompleted      = errors.New("event is not completed yet")
	ErrNoSubmittedProject     = errors.New("profile has no submitted project for this event")

	// Ошибки конфликтов
	ErrEmailConflict      = errors.New("email address is already in use")
	ErrEventNameConflict  = errors.New("event name is already taken")
	ErrTeamNameConflict   = errors.New("team name is already taken for this event")
	ErrSubmissionExists   = errors.New("team already has a submission for this event")
	ErrEvaluationExists   = errors.New("evaluator already scored this submission")
	ErrCertificateExists  = errors.New("certificate already issued")

	// Ошибки аутентификации и авторизации
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrProfileSuspended   = errors.New("profile is suspended")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
	ErrLeaderOnly         = errors.New("only the team leader can perform this action")
	ErrResetTokenInvalid  = errors.New("password reset token is invalid or expired")

	// Ошибки, специфичные для сущностей
	ErrProfileNotFound     = errors.New("profile not found")
	ErrEventNotFound       = errors.New("event not found")
	ErrTeamNotFound        = errors.New("team not found")
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrEvaluationNotFound  = errors.New("evaluation not found")
	ErrCertificateNotFound = errors.New("certificate not found")
	ErrMemberNotFound      = errors.New("team member not found")
)
