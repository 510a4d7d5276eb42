package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// InvitationTTL is how long an invitation stays usable. Expiry is checked
// lazily at activation time; there is no background sweep.
const InvitationTTL = 7 * 24 * time.Hour

// NewInvitationToken returns an opaque, unguessable activation token: the hex
// SHA-256 of 32 random bytes mixed with the invitee's email. Tokens are
// looked up by exact match and are not reversible.
func NewInvitationToken(email string) (string, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generate invitation token: %w", err)
	}

	sum := sha256.Sum256(append(buf[:], []byte(email)...))
	return hex.EncodeToString(sum[:]), nil
}
