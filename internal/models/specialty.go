package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Specialty struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	AvatarURL string             `bson:"avatarURL,omitempty" json:"avatarURL,omitempty"`
}

// Summary returns the display subset used when expanding doctors.
func (s Specialty) Summary() *SpecialtySummary {
	return &SpecialtySummary{ID: s.ID, Name: s.Name, AvatarURL: s.AvatarURL}
}
