package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is both the account's role tag and the name of the collection that holds it.
type Role string

const (
	RoleUser   Role = "user"
	RoleDoctor Role = "doctor"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// Account is the shared shape of User, Doctor and Admin records.
type Account struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OriginID    primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"` // User record this account was promoted from
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	Phone       string             `bson:"phone" json:"phone"`
	Password    string             `bson:"password" json:"-"` // bcrypt hash, never serialized
	Role        Role               `bson:"role" json:"role"`
	Address     string             `bson:"address,omitempty" json:"address,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	MinAge      *int               `bson:"minAge,omitempty" json:"minAge,omitempty"`
	AvatarURL   string             `bson:"avatarURL,omitempty" json:"avatarURL,omitempty"`
	FCMToken    string             `bson:"fcmToken,omitempty" json:"-"`
	IsDeleted   bool               `bson:"isDeleted" json:"isDeleted"`

	// Doctor only.
	Specialty primitive.ObjectID `bson:"specialty,omitempty" json:"specialty,omitempty"`
	Hospital  string             `bson:"hospital,omitempty" json:"hospital,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// AccountFields is a field-level patch; nil fields are left untouched.
type AccountFields struct {
	Name        *string
	Email       *string
	Phone       *string
	Password    *string
	Address     *string
	Description *string
	AvatarURL   *string
}

// Empty reports whether the patch changes nothing.
func (f AccountFields) Empty() bool {
	return f.Name == nil && f.Email == nil && f.Phone == nil && f.Password == nil &&
		f.Address == nil && f.Description == nil && f.AvatarURL == nil
}

// Apply copies the set fields onto a.
func (f AccountFields) Apply(a *Account) {
	if f.Name != nil {
		a.Name = *f.Name
	}
	if f.Email != nil {
		a.Email = *f.Email
	}
	if f.Phone != nil {
		a.Phone = *f.Phone
	}
	if f.Password != nil {
		a.Password = *f.Password
	}
	if f.Address != nil {
		a.Address = *f.Address
	}
	if f.Description != nil {
		a.Description = *f.Description
	}
	if f.AvatarURL != nil {
		a.AvatarURL = *f.AvatarURL
	}
}

// AccountPatch is the admin-facing update request.
type AccountPatch struct {
	Name        string `json:"name"`
	Email       string `json:"email" binding:"omitempty,email"`
	Phone       string `json:"phone"`
	Password    string `json:"password"`
	Address     string `json:"address"`
	Description string `json:"description"`
	AvatarImage string `json:"userImage"` // base64 image payload
	Role        Role   `json:"role"`
}
