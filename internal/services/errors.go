package services

// Kind classifies a service failure so the HTTP layer can pick a status.
type Kind int

const (
	KindConflict Kind = iota + 1
	KindUnauthorized
	KindNotFound
	KindBadRequest
)

// Error is a failure the caller is expected to see as-is.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrEmailInUse         = &Error{Kind: KindConflict, Message: "Email already in use"}
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Message: "Email or password is wrong"}
	ErrEmailNotVerified   = &Error{Kind: KindUnauthorized, Message: "Email not verified"}
	ErrUserNotFound       = &Error{Kind: KindUnauthorized, Message: "User not found"}
	ErrAlreadyVerified    = &Error{Kind: KindUnauthorized, Message: "Verification has already been passed"}
	ErrNotAuthorized      = &Error{Kind: KindUnauthorized, Message: "Not authorized"}
	ErrContactNotFound    = &Error{Kind: KindNotFound, Message: "Not found"}
	ErrContactNotSaved    = &Error{Kind: KindBadRequest, Message: "Unable to save in data base"}
	ErrInvalidAvatar      = &Error{Kind: KindBadRequest, Message: "Avatar must be a jpeg, png, gif, bmp or tiff image"}
)
