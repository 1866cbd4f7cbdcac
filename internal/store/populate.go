package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/clinic-api/internal/models"
)

// populate attaches doctor and patient summaries to views with one batched $in query per
// referenced collection.
func (s *Appointments) populate(ctx context.Context, views []models.AppointmentView, expand models.Expansion) error {
	doctorIDs := map[primitive.ObjectID]struct{}{}
	patientIDs := map[models.PatientKind]map[primitive.ObjectID]struct{}{
		models.PatientUser:   {},
		models.PatientDoctor: {},
	}
	for _, v := range views {
		doctorIDs[v.DoctorID] = struct{}{}
		if ids, ok := patientIDs[v.PatientRef.Kind]; ok {
			ids[v.PatientRef.ID] = struct{}{}
		}
	}

	doctorFields := bson.M{"name": 1, "avatarURL": 1}
	if expand == models.ExpandFull {
		doctorFields = bson.M{"name": 1, "specialty": 1, "hospital": 1, "address": 1}
	}
	doctors, err := s.loadAccounts(ctx, DoctorsCollection, doctorIDs, doctorFields)
	if err != nil {
		return err
	}

	var specialties map[primitive.ObjectID]models.Specialty
	if expand == models.ExpandFull {
		ids := map[primitive.ObjectID]struct{}{}
		for _, d := range doctors {
			if !d.Specialty.IsZero() {
				ids[d.Specialty] = struct{}{}
			}
		}
		if specialties, err = s.loadSpecialties(ctx, ids); err != nil {
			return err
		}
	}

	patients := map[models.PatientKind]map[primitive.ObjectID]models.Account{}
	for _, kind := range []models.PatientKind{models.PatientUser, models.PatientDoctor} {
		loaded, err := s.loadAccounts(ctx, CollectionFor(kind.Role()), patientIDs[kind], bson.M{"name": 1})
		if err != nil {
			return err
		}
		patients[kind] = loaded
	}

	for i := range views {
		v := &views[i]
		if d, ok := doctors[v.DoctorID]; ok {
			summary := &models.DoctorSummary{ID: d.ID, Name: d.Name}
			if expand == models.ExpandFull {
				summary.Hospital = d.Hospital
				summary.Address = d.Address
				if sp, ok := specialties[d.Specialty]; ok {
					summary.Specialty = sp.Summary()
				}
			} else {
				summary.AvatarURL = d.AvatarURL
			}
			v.Doctor = summary
		}
		if p, ok := patients[v.PatientRef.Kind][v.PatientRef.ID]; ok {
			v.Patient = &models.PatientSummary{ID: p.ID, Name: p.Name}
		}
	}
	return nil
}

func (s *Appointments) loadAccounts(ctx context.Context, coll string, ids map[primitive.ObjectID]struct{}, fields bson.M) (map[primitive.ObjectID]models.Account, error) {
	out := map[primitive.ObjectID]models.Account{}
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := s.db.Collection(coll).Find(ctx,
		bson.M{"_id": bson.M{"$in": keys(ids)}},
		options.Find().SetProjection(fields))
	if err != nil {
		return nil, fmt.Errorf("populate %s: %w", coll, err)
	}
	defer cursor.Close(ctx)

	var accounts []models.Account
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll, err)
	}
	for _, a := range accounts {
		out[a.ID] = a
	}
	return out, nil
}

func (s *Appointments) loadSpecialties(ctx context.Context, ids map[primitive.ObjectID]struct{}) (map[primitive.ObjectID]models.Specialty, error) {
	out := map[primitive.ObjectID]models.Specialty{}
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := s.db.Collection(SpecialtiesCollection).Find(ctx,
		bson.M{"_id": bson.M{"$in": keys(ids)}},
		options.Find().SetProjection(bson.M{"name": 1, "avatarURL": 1}))
	if err != nil {
		return nil, fmt.Errorf("populate specialties: %w", err)
	}
	defer cursor.Close(ctx)

	var specialties []models.Specialty
	if err := cursor.All(ctx, &specialties); err != nil {
		return nil, fmt.Errorf("decode specialties: %w", err)
	}
	for _, sp := range specialties {
		out[sp.ID] = sp
	}
	return out, nil
}

func keys(set map[primitive.ObjectID]struct{}) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
