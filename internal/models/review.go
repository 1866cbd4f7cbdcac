package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is a patient's rating of a doctor. A patient reviews a given doctor at most once.
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DoctorID  primitive.ObjectID `bson:"doctor" json:"doctorId"`
	UserID    primitive.ObjectID `bson:"user" json:"userId"`
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type ReviewRequest struct {
	DoctorID string `json:"doctorID" binding:"required,objectid"`
	Rating   int    `json:"rating" binding:"required,min=1,max=5"`
	Comment  string `json:"comment" binding:"max=1000"`
}

// DoctorReviews is a doctor's reviews, newest first, with their average rating.
type DoctorReviews struct {
	DoctorID primitive.ObjectID `json:"doctorId"`
	Count    int                `json:"count"`
	Average  float64            `json:"average"`
	Reviews  []Review           `json:"reviews"`
}
