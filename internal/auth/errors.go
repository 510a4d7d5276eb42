package auth

import "errors"

var (
	// ErrInvalidCredentials covers unknown email, an account with no
	// credential set, and a wrong password. The message is deliberately the
	// same for all three so callers cannot probe for account existence.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrUserNotFound = errors.New("user does not exist")
	ErrNoCredential = errors.New("password has not been set")

	ErrNotOwner          = errors.New("only the owner can invite users")
	ErrOwnerRoleReserved = errors.New("an owner account is created only at registration")

	ErrInvitationNotFound = errors.New("invitation does not exist")
	ErrInvitationExpired  = errors.New("invitation has expired")
	ErrAlreadyActivated   = errors.New("account has already been activated")
)
