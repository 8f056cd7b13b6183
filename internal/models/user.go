package models

import "time"

// Subscription is the plan a user is signed up for.
type Subscription string

const (
	SubscriptionStarter  Subscription = "starter"
	SubscriptionPro      Subscription = "pro"
	SubscriptionBusiness Subscription = "business"
)

// Valid reports whether s is one of the known plans.
func (s Subscription) Valid() bool {
	switch s {
	case SubscriptionStarter, SubscriptionPro, SubscriptionBusiness:
		return true
	}
	return false
}

// User represents a registered account.
// Password holds the bcrypt hash, never the plaintext.
type User struct {
	ID                string       `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Email             string       `json:"email" gorm:"uniqueIndex;type:varchar(255);not null" bson:"email"`
	Password          string       `json:"-" gorm:"type:varchar(255);not null" bson:"password"`
	Subscription      Subscription `json:"subscription" gorm:"type:varchar(16);not null;default:starter" bson:"subscription"`
	Token             *string      `json:"-" gorm:"type:text" bson:"token"`
	AvatarURL         string       `json:"avatarURL" gorm:"type:varchar(512);not null" bson:"avatarURL"`
	Verify            bool         `json:"verify" gorm:"not null;default:false" bson:"verify"`
	VerificationToken string       `json:"-" gorm:"index;type:varchar(64)" bson:"verificationToken"`
	CreatedAt         time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// HasSession reports whether token is the session currently stored on the user.
func (u *User) HasSession(token string) bool {
	return u.Token != nil && *u.Token != "" && *u.Token == token
}
