package accounts

import (
	"time"

	"github.com/google/uuid"
)

// Account is the local record for a person who has signed in through an
// identity provider. Email is the identity key, unique across all accounts
// and compared exactly as received from the provider. Username is set to
// the email at creation and never changed by this service.
type Account struct {
	ID         uuid.UUID `json:"id"          db:"id"`
	Email      string    `json:"email"       db:"email"`
	Username   string    `json:"username"    db:"username"`
	GivenName  string    `json:"given_name"  db:"given_name"`
	FamilyName string    `json:"family_name" db:"family_name"`
	AvatarURL  string    `json:"avatar_url"  db:"avatar_url"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"  db:"updated_at"`
}
