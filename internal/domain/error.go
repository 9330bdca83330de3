package domain

import (
	"errors"
	"fmt"
)

// Domain errors. Callers wrap them with %w to attach identifiers.
var (
	// Not found
	ErrTeamNotFound   = errors.New("team not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrPRNotFound     = errors.New("pull request not found")
	ErrAuthorNotFound = errors.New("author not found or inactive")

	// Conflicts and state violations
	ErrTeamExists    = errors.New("team already exists")
	ErrPRExists      = errors.New("pull request already exists")
	ErrPRMerged      = errors.New("cannot reassign on merged pull request")
	ErrNotAssigned   = errors.New("reviewer is not assigned to this pull request")
	ErrNoCandidate   = errors.New("no active replacement candidate in team")
	ErrUserNotInTeam = errors.New("user is not in any active team")

	// ErrInvalidArgument - malformed request
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIntegrity - storage constraint violation
	ErrIntegrity = errors.New("data integrity violation")

	// ErrInternal - anything the caller should not see the details of
	ErrInternal = errors.New("internal server error")
)

type ErrorCode string

const (
	ErrorCodeTeamExists      ErrorCode = "TEAM_EXISTS"
	ErrorCodeTeamNotFound    ErrorCode = "TEAM_NOT_FOUND"
	ErrorCodeUserNotFound    ErrorCode = "USER_NOT_FOUND"
	ErrorCodePRExists        ErrorCode = "PR_EXISTS"
	ErrorCodePRNotFound      ErrorCode = "PR_NOT_FOUND"
	ErrorCodeAuthorNotFound  ErrorCode = "AUTHOR_NOT_FOUND"
	ErrorCodePRMerged        ErrorCode = "PR_MERGED"
	ErrorCodeNotAssigned     ErrorCode = "NOT_ASSIGNED"
	ErrorCodeNoCandidate     ErrorCode = "NO_CANDIDATE"
	ErrorCodeUserNotInTeam   ErrorCode = "USER_NOT_IN_TEAM"
	ErrorCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	ErrorCodeIntegrity       ErrorCode = "INTEGRITY_ERROR"
	ErrorCodeServerError     ErrorCode = "SERVER_ERROR"
)

var codes = []struct {
	err  error
	code ErrorCode
}{
	{ErrTeamExists, ErrorCodeTeamExists},
	{ErrTeamNotFound, ErrorCodeTeamNotFound},
	{ErrUserNotFound, ErrorCodeUserNotFound},
	{ErrPRExists, ErrorCodePRExists},
	{ErrPRNotFound, ErrorCodePRNotFound},
	{ErrAuthorNotFound, ErrorCodeAuthorNotFound},
	{ErrPRMerged, ErrorCodePRMerged},
	{ErrNotAssigned, ErrorCodeNotAssigned},
	{ErrNoCandidate, ErrorCodeNoCandidate},
	{ErrUserNotInTeam, ErrorCodeUserNotInTeam},
	{ErrInvalidArgument, ErrorCodeInvalidArgument},
	{ErrIntegrity, ErrorCodeIntegrity},
}

// GetErrorCode returns the wire code for err. Unknown errors are SERVER_ERROR.
func GetErrorCode(err error) ErrorCode {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ErrorCodeServerError
}

func GetHTTPStatus(err error) int {
	switch GetErrorCode(err) {
	case ErrorCodeTeamNotFound, ErrorCodeUserNotFound, ErrorCodePRNotFound,
		ErrorCodeAuthorNotFound, ErrorCodeUserNotInTeam:
		return 404
	case ErrorCodeTeamExists, ErrorCodeInvalidArgument:
		return 400
	case ErrorCodePRExists, ErrorCodePRMerged, ErrorCodeNotAssigned,
		ErrorCodeNoCandidate, ErrorCodeIntegrity:
		return 409
	default:
		return 500
	}
}

// PublicMessage is the message safe to hand to a client. Integrity and
// internal failures collapse to their sentinel text.
func PublicMessage(err error) string {
	switch GetErrorCode(err) {
	case ErrorCodeIntegrity:
		return ErrIntegrity.Error()
	case ErrorCodeServerError:
		return ErrInternal.Error()
	default:
		return err.Error()
	}
}

// IsDomainError reports whether err carries a code other than SERVER_ERROR.
func IsDomainError(err error) bool {
	return GetErrorCode(err) != ErrorCodeServerError
}

// Sanitize leaves domain errors untouched and folds everything else into
// ErrInternal so raw driver errors never leave the service layer.
func Sanitize(err error) error {
	if err == nil || IsDomainError(err) || errors.Is(err, ErrInternal) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrInternal, err)
}

// Integrity marks err as a constraint violation.
func Integrity(err error) error {
	return fmt.Errorf("%w: %v", ErrIntegrity, err)
}
