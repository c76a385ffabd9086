package gift

import "errors"

// NotFoundError reports a missing row (user, family, invitation, group,
// envelope, request). Surfaced to callers as a 404-equivalent and never
// retried.
type NotFoundError struct {
	Kind string
}

func (e *NotFoundError) Error() string { return e.Kind + " not found" }

// PrivateDataError reports a violated precondition on a group's encrypted
// document: the acting user holds no envelope, or the group has no sealed
// document. Terminal for the current request.
type PrivateDataError struct {
	Reason string
}

func (e *PrivateDataError) Error() string { return "private data: " + e.Reason }

var (
	// ErrForbidden is returned when a caller acts outside their membership
	// or against their own private data.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAlreadyMember is returned when inviting a user who already
	// belongs to the family.
	ErrAlreadyMember = errors.New("user is already a family member")

	// ErrAlreadyInvited is returned when an outstanding invitation for the
	// same address and family exists.
	ErrAlreadyInvited = errors.New("user is already invited")
)
