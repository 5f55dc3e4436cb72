package app

import "errors"

var (
	// ErrSessionNotStarted indicates the chat room is missing or expired.
	ErrSessionNotStarted = errors.New("채팅 세션이 시작되지 않았습니다")
	// ErrChatForbidden indicates the caller is not a room participant.
	ErrChatForbidden = errors.New("채팅에 접근할 권한이 부족합니다")
	// ErrLinkerForbidden blocks supporter accounts from emoter features.
	ErrLinkerForbidden = errors.New("forbidden")

	ErrNotLinker       = errors.New("linker account required")
	ErrNotEmoter       = errors.New("emoter account required")
	ErrEmoterNotFound  = errors.New("emoter not found")
	ErrLinkNotFound    = errors.New("link not found")
	ErrLinkNotAccepted = errors.New("link not accepted")

	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrInvalidUserID      = errors.New("user id must be at least 4 characters")
	ErrDuplicateUserID    = errors.New("user id already taken")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidBirthday    = errors.New("invalid birthday")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
