package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-api/internal/apperr"
	"github.com/harentsoaR/clinic-api/internal/models"
)

func TestCreateEnforcesUniqueEmailPerCollection(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, &models.Account{Role: models.RoleUser, Email: "a@x.io", Phone: "1"}))
	err := s.Create(ctx, &models.Account{Role: models.RoleUser, Email: "a@x.io", Phone: "2"})
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	// Same email in another collection is allowed.
	require.NoError(t, s.Create(ctx, &models.Account{Role: models.RoleAdmin, Email: "a@x.io", Phone: "1"}))
}

func TestTransferRollsBackOnConflict(t *testing.T) {
	s := New()
	ctx := context.Background()

	user := &models.Account{Role: models.RoleUser, Email: "u@x.io", Phone: "1"}
	require.NoError(t, s.Create(ctx, user))
	require.NoError(t, s.Create(ctx, &models.Account{Role: models.RoleDoctor, Email: "u@x.io", Phone: "9"}))

	to := &models.Account{Role: models.RoleDoctor, Email: "u@x.io", Phone: "1"}
	err := s.Transfer(ctx, user, to)
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	_, err = s.FindByID(ctx, models.RoleUser, user.ID)
	assert.NoError(t, err, "source record restored")
	assert.Equal(t, 1, s.Count(models.RoleDoctor))
}

func TestAppointmentsSlotAndExpansion(t *testing.T) {
	s := New()
	ctx := context.Background()
	apts := s.Appointments()

	sp := s.AddSpecialty(models.Specialty{Name: "Cardiology"})
	doc := &models.Account{Role: models.RoleDoctor, Name: "Dr. Ho", Email: "d@x.io", Hospital: "City", Specialty: sp.ID, AvatarURL: "http://a"}
	require.NoError(t, s.Create(ctx, doc))
	pat := &models.Account{Role: models.RoleUser, Name: "Pat", Email: "p@x.io"}
	require.NoError(t, s.Create(ctx, pat))

	apt := &models.Appointment{DoctorID: doc.ID, PatientRef: models.PatientRef{Kind: models.PatientUser, ID: pat.ID}, Date: "2024-01-01", Time: "10:00"}
	require.NoError(t, apts.Create(ctx, apt))

	dup := &models.Appointment{DoctorID: doc.ID, Date: "2024-01-01", Time: "10:00"}
	assert.True(t, errors.Is(apts.Create(ctx, dup), apperr.ErrConflict))

	brief, err := apts.List(ctx, models.AppointmentFilter{DoctorID: doc.ID}, models.ExpandBrief)
	require.NoError(t, err)
	require.Len(t, brief, 1)
	assert.Equal(t, "Dr. Ho", brief[0].Doctor.Name)
	assert.Equal(t, "http://a", brief[0].Doctor.AvatarURL)
	assert.Nil(t, brief[0].Doctor.Specialty)
	assert.Equal(t, "Pat", brief[0].Patient.Name)

	full, err := apts.List(ctx, models.AppointmentFilter{}, models.ExpandFull)
	require.NoError(t, err)
	require.Len(t, full, 1)
	assert.Equal(t, "City", full[0].Doctor.Hospital)
	require.NotNil(t, full[0].Doctor.Specialty)
	assert.Equal(t, "Cardiology", full[0].Doctor.Specialty.Name)

	_, err = apts.FindByID(ctx, primitive.NewObjectID())
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestReviewsUniquePerDoctorAndUser(t *testing.T) {
	s := New()
	ctx := context.Background()
	reviews := s.Reviews()
	doctor, user := primitive.NewObjectID(), primitive.NewObjectID()

	first := &models.Review{DoctorID: doctor, UserID: user, Rating: 4}
	require.NoError(t, reviews.Create(ctx, first))
	err := reviews.Create(ctx, &models.Review{DoctorID: doctor, UserID: user, Rating: 1})
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	require.NoError(t, reviews.Create(ctx, &models.Review{DoctorID: primitive.NewObjectID(), UserID: user, Rating: 5}))

	list, err := reviews.ListByDoctor(ctx, doctor)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)

	_, err = reviews.Delete(ctx, first.ID)
	require.NoError(t, err)
	_, err = reviews.FindByID(ctx, first.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
