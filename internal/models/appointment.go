package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusDone      AppointmentStatus = "done"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusDone:
		return true
	}
	return false
}

// DefaultExaminationMethod is used when a booking does not name one.
const DefaultExaminationMethod = "at_clinic"

// PatientKind names the collection a patient reference points into.
type PatientKind string

const (
	PatientUser   PatientKind = "User"
	PatientDoctor PatientKind = "Doctor"
)

// Role returns the account role whose collection holds patients of this kind.
func (k PatientKind) Role() Role {
	if k == PatientDoctor {
		return RoleDoctor
	}
	return RoleUser
}

// PatientRef is resolved once at booking time and never rewritten.
type PatientRef struct {
	Kind PatientKind        `bson:"patientModel" json:"patientModel"`
	ID   primitive.ObjectID `bson:"patient" json:"patientId"`
}

type Appointment struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DoctorID          primitive.ObjectID `bson:"doctor" json:"doctorId"`
	PatientRef        PatientRef         `bson:",inline" json:"patientRef"`
	Date              string             `bson:"date" json:"date"`
	Time              string             `bson:"time" json:"time"`
	Status            AppointmentStatus  `bson:"status" json:"status"`
	ExaminationMethod string             `bson:"examinationMethod" json:"examinationMethod"`
	Reason            string             `bson:"reason,omitempty" json:"reason,omitempty"`
	Notes             string             `bson:"notes,omitempty" json:"notes,omitempty"`
	TotalCost         float64            `bson:"totalCost" json:"totalCost"`
	Location          string             `bson:"location,omitempty" json:"location,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AppointmentPatch is a partial update; nil fields are left untouched.
type AppointmentPatch struct {
	Date              *string            `json:"date,omitempty"`
	Time              *string            `json:"time,omitempty"`
	Status            *AppointmentStatus `json:"status,omitempty"`
	ExaminationMethod *string            `json:"examinationMethod,omitempty"`
	Reason            *string            `json:"reason,omitempty"`
	Notes             *string            `json:"notes,omitempty"`
	TotalCost         *float64           `json:"totalCost,omitempty"`
	Location          *string            `json:"location,omitempty"`
}

func (p AppointmentPatch) Empty() bool {
	return p.Date == nil && p.Time == nil && p.Status == nil && p.ExaminationMethod == nil &&
		p.Reason == nil && p.Notes == nil && p.TotalCost == nil && p.Location == nil
}

func (p AppointmentPatch) Apply(a *Appointment) {
	if p.Date != nil {
		a.Date = *p.Date
	}
	if p.Time != nil {
		a.Time = *p.Time
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.ExaminationMethod != nil {
		a.ExaminationMethod = *p.ExaminationMethod
	}
	if p.Reason != nil {
		a.Reason = *p.Reason
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	if p.TotalCost != nil {
		a.TotalCost = *p.TotalCost
	}
	if p.Location != nil {
		a.Location = *p.Location
	}
}

// AppointmentFilter selects appointments; zero fields are ignored.
type AppointmentFilter struct {
	DoctorID  primitive.ObjectID
	PatientID primitive.ObjectID
	Status    AppointmentStatus
}

// Expansion controls how much of the referenced doctor and patient is attached to a listing.
type Expansion int

const (
	ExpandNone Expansion = iota
	// ExpandBrief attaches doctor {name, avatarURL} and patient {name}.
	ExpandBrief
	// ExpandFull attaches doctor {name, specialty, hospital, address} and patient {_id, name}.
	ExpandFull
)

type SpecialtySummary struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	AvatarURL string             `bson:"avatarURL,omitempty" json:"avatarURL,omitempty"`
}

type DoctorSummary struct {
	ID        primitive.ObjectID `json:"id"`
	Name      string             `json:"name"`
	AvatarURL string             `json:"avatarURL,omitempty"`
	Hospital  string             `json:"hospital,omitempty"`
	Address   string             `json:"address,omitempty"`
	Specialty *SpecialtySummary  `json:"specialty,omitempty"`
}

type PatientSummary struct {
	ID   primitive.ObjectID `json:"id"`
	Name string             `json:"name"`
}

// AppointmentView is an appointment with its references expanded for display.
type AppointmentView struct {
	Appointment
	Doctor  *DoctorSummary  `json:"doctor,omitempty"`
	Patient *PatientSummary `json:"patient,omitempty"`
}

// BookRequest carries the fields accepted when booking.
type BookRequest struct {
	DoctorID          string            `json:"doctorID" binding:"required,objectid"`
	PatientID         string            `json:"patientID" binding:"required,objectid"`
	Date              string            `json:"date" binding:"required"`
	Time              string            `json:"time" binding:"required"`
	Status            AppointmentStatus `json:"status"`
	ExaminationMethod string            `json:"examinationMethod"`
	Reason            string            `json:"reason"`
	Notes             string            `json:"notes"`
	TotalCost         float64           `json:"totalCost"`
	Location          string            `json:"location"`
}
