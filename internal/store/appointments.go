package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/clinic-api/internal/models"
)

const slotConflict = "This time slot is already booked"

type Appointments struct {
	db  *mongo.Database
	now func() time.Time
}

func NewAppointments(db *mongo.Database) *Appointments {
	return &Appointments{db: db, now: time.Now}
}

func (s *Appointments) coll() *mongo.Collection {
	return s.db.Collection(AppointmentsCollection)
}

// Create inserts apt. The unique doctor/date/time index turns a lost booking race into a
// Conflict.
func (s *Appointments) Create(ctx context.Context, apt *models.Appointment) error {
	if apt.ID.IsZero() {
		apt.ID = primitive.NewObjectID()
	}
	now := s.now()
	apt.CreatedAt = now
	apt.UpdatedAt = now

	_, err := s.coll().InsertOne(ctx, apt)
	return translate(err, "Appointment", slotConflict)
}

func (s *Appointments) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	var apt models.Appointment
	if err := s.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&apt); err != nil {
		return nil, translate(err, "Appointment", slotConflict)
	}
	return &apt, nil
}

func (s *Appointments) SlotTaken(ctx context.Context, doctorID primitive.ObjectID, date, tm string) (bool, error) {
	n, err := s.coll().CountDocuments(ctx,
		bson.M{"doctor": doctorID, "date": date, "time": tm},
		options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return n > 0, nil
}

func (s *Appointments) Update(ctx context.Context, id primitive.ObjectID, patch models.AppointmentPatch) (*models.Appointment, error) {
	set := appointmentSet(patch)
	set["updatedAt"] = s.now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var apt models.Appointment
	err := s.coll().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&apt)
	if err != nil {
		return nil, translate(err, "Appointment", slotConflict)
	}
	return &apt, nil
}

func appointmentSet(p models.AppointmentPatch) bson.M {
	set := bson.M{}
	if p.Date != nil {
		set["date"] = *p.Date
	}
	if p.Time != nil {
		set["time"] = *p.Time
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.ExaminationMethod != nil {
		set["examinationMethod"] = *p.ExaminationMethod
	}
	if p.Reason != nil {
		set["reason"] = *p.Reason
	}
	if p.Notes != nil {
		set["notes"] = *p.Notes
	}
	if p.TotalCost != nil {
		set["totalCost"] = *p.TotalCost
	}
	if p.Location != nil {
		set["location"] = *p.Location
	}
	return set
}

func (s *Appointments) Delete(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	var apt models.Appointment
	if err := s.coll().FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&apt); err != nil {
		return nil, translate(err, "Appointment", slotConflict)
	}
	return &apt, nil
}

func (s *Appointments) List(ctx context.Context, filter models.AppointmentFilter, expand models.Expansion) ([]models.AppointmentView, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}})
	cursor, err := s.coll().Find(ctx, appointmentFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("find appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var appointments []models.Appointment
	if err := cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("decode appointments: %w", err)
	}

	views := make([]models.AppointmentView, len(appointments))
	for i, apt := range appointments {
		views[i] = models.AppointmentView{Appointment: apt}
	}
	if expand == models.ExpandNone || len(views) == 0 {
		return views, nil
	}
	if err := s.populate(ctx, views, expand); err != nil {
		return nil, err
	}
	return views, nil
}

func appointmentFilter(f models.AppointmentFilter) bson.M {
	filter := bson.M{}
	if !f.DoctorID.IsZero() {
		filter["doctor"] = f.DoctorID
	}
	if !f.PatientID.IsZero() {
		filter["patient"] = f.PatientID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return filter
}
