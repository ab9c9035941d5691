package identity

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Role represents an account role on the back office.
type Role string

const (
	RoleAdmin     Role = "ADMIN"     // Full access, including assistant account management
	RoleAssistant Role = "ASSISTANT" // Day-to-day operations only
)

// Identity is the authenticated account as the backend serializes it.
// Field names follow the backend's French naming.
type Identity struct {
	ID        string `json:"id"`
	Nom       string `json:"nom"`
	Prenom    string `json:"prenom"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at,omitempty"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

func (i Identity) FullName() string {
	return strings.TrimSpace(i.Prenom + " " + i.Nom)
}

// Valid reports whether the identity carries the fields every
// authenticated account must have.
func (i Identity) Valid() bool {
	return i.ID != "" && i.Email != "" && i.Role != ""
}

// TokenExpiry reads the expiry claim out of a raw access token without
// verifying the signature. The backend is the only authority on token
// validity; this exists purely so the UI can display when the session
// will lapse.
func TokenExpiry(raw string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, errors.Wrap(err, "[identity.TokenExpiry] ParseUnverified")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, errors.Wrap(err, "[identity.TokenExpiry] GetExpirationTime")
	}
	if exp == nil {
		return time.Time{}, errors.New("[identity.TokenExpiry] token has no expiry claim")
	}
	return exp.Time, nil
}
