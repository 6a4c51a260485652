package domain

import (
	"time"

	"github.com/google/uuid"
)

// Provider tags the authentication method an identity assertion came from.
type Provider string

const (
	ProviderEmailPassword Provider = "email-password"
	ProviderGoogle        Provider = "google"
	ProviderApple         Provider = "apple"
	ProviderMagicLink     Provider = "magic-link"
)

type User struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email          string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	FullName       string    `json:"fullName" gorm:"size:255"`
	AvatarURL      string    `json:"avatarUrl,omitempty"`
	HashedPassword string    `json:"-" gorm:"size:255"`

	// Federated identities. Nullable so the unique indexes only apply
	// to rows that actually carry a subject id.
	GoogleSubjectID *string `json:"-" gorm:"size:255;uniqueIndex"`
	AppleSubjectID  *string `json:"-" gorm:"size:255;uniqueIndex"`

	IsActive   bool `json:"isActive" gorm:"not null;default:true"`
	IsVerified bool `json:"isVerified" gorm:"not null;default:false"`

	// Magic-link state, cleared on successful verification.
	EmailVerificationToken   *string    `json:"-" gorm:"size:255;index"`
	EmailVerificationExpires *time.Time `json:"-"`

	Timezone  string    `json:"timezone" gorm:"size:50;default:'UTC'"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProviderSubject returns the stored subject id for a federated provider.
func (u *User) ProviderSubject(p Provider) string {
	switch p {
	case ProviderGoogle:
		if u.GoogleSubjectID != nil {
			return *u.GoogleSubjectID
		}
	case ProviderApple:
		if u.AppleSubjectID != nil {
			return *u.AppleSubjectID
		}
	}
	return ""
}

// SetProviderSubject links a federated subject id onto the user.
func (u *User) SetProviderSubject(p Provider, subject string) {
	switch p {
	case ProviderGoogle:
		u.GoogleSubjectID = &subject
	case ProviderApple:
		u.AppleSubjectID = &subject
	}
}
