package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/harentsoaR/clinic-api/internal/apperr"
	"github.com/harentsoaR/clinic-api/internal/models"
)

const (
	doctorAppointmentsKey  = "all_doctor_appointments_"
	patientAppointmentsKey = "all_patient_appointments_"
)

// patientKinds is the order in which a booking's patient id is resolved.
var patientKinds = []models.PatientKind{models.PatientUser, models.PatientDoctor}

// AppointmentService books appointments and serves cached appointment lists.
type AppointmentService struct {
	appointments AppointmentStore
	accounts     AccountStore
	cache        Cache
	notifier     Notifier
	ttl          time.Duration
	log          *zap.Logger
}

func NewAppointmentService(appointments AppointmentStore, accounts AccountStore, cache Cache, notifier Notifier, ttl time.Duration, log *zap.Logger) *AppointmentService {
	return &AppointmentService{
		appointments: appointments,
		accounts:     accounts,
		cache:        cache,
		notifier:     notifier,
		ttl:          ttl,
		log:          log,
	}
}

func (s *AppointmentService) BookAppointment(ctx context.Context, req models.BookRequest) (*models.Appointment, error) {
	doctorID, err := parseID(req.DoctorID)
	if err != nil {
		return nil, err
	}
	patientID, err := parseID(req.PatientID)
	if err != nil {
		return nil, err
	}

	if _, err := s.accounts.FindByID(ctx, models.RoleDoctor, doctorID); err != nil {
		return nil, err
	}
	patient, kind, err := s.resolvePatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	taken, err := s.appointments.SlotTaken(ctx, doctorID, req.Date, req.Time)
	if err != nil {
		return nil, fmt.Errorf("checking slot: %w", err)
	}
	if taken {
		return nil, apperr.Conflict("This time slot is already booked")
	}

	apt := &models.Appointment{
		DoctorID:          doctorID,
		PatientRef:        models.PatientRef{Kind: kind, ID: patientID},
		Date:              req.Date,
		Time:              req.Time,
		Status:            req.Status,
		ExaminationMethod: req.ExaminationMethod,
		Reason:            req.Reason,
		Notes:             req.Notes,
		TotalCost:         req.TotalCost,
		Location:          req.Location,
	}
	if apt.Status == "" {
		apt.Status = models.StatusPending
	}
	if apt.ExaminationMethod == "" {
		apt.ExaminationMethod = models.DefaultExaminationMethod
	}

	// A concurrent booking of the same slot fails here on the unique index.
	if err := s.appointments.Create(ctx, apt); err != nil {
		return nil, err
	}
	s.invalidate(ctx, apt)
	s.log.Info("appointment booked",
		zap.String("id", apt.ID.Hex()),
		zap.String("doctor", doctorID.Hex()),
		zap.String("date", apt.Date),
		zap.String("time", apt.Time))

	s.notifier.Notify(ctx, patient, "Appointment booked", fmt.Sprintf("Your appointment on %s at %s is booked.", apt.Date, apt.Time))
	return apt, nil
}

// resolvePatient looks the id up in the user collection, then the doctor collection.
func (s *AppointmentService) resolvePatient(ctx context.Context, id primitive.ObjectID) (*models.Account, models.PatientKind, error) {
	for _, kind := range patientKinds {
		acct, err := s.accounts.FindByID(ctx, kind.Role(), id)
		if err == nil {
			return acct, kind, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, "", err
		}
	}
	return nil, "", apperr.NotFound("Patient")
}

func (s *AppointmentService) CancelAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	apt, err := s.setStatus(ctx, id, models.StatusCancelled)
	if err != nil {
		return nil, err
	}
	s.notifyPatient(ctx, apt, "Appointment cancelled", fmt.Sprintf("Your appointment on %s at %s was cancelled.", apt.Date, apt.Time))
	return apt, nil
}

func (s *AppointmentService) ConfirmAppointmentDone(ctx context.Context, id string) (*models.Appointment, error) {
	apt, err := s.setStatus(ctx, id, models.StatusDone)
	if err != nil {
		return nil, err
	}
	s.notifyPatient(ctx, apt, "Appointment completed", fmt.Sprintf("Your appointment on %s at %s is marked as done.", apt.Date, apt.Time))
	return apt, nil
}

func (s *AppointmentService) setStatus(ctx context.Context, id string, status models.AppointmentStatus) (*models.Appointment, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.appointments.FindByID(ctx, oid); err != nil {
		return nil, err
	}
	apt, err := s.appointments.Update(ctx, oid, models.AppointmentPatch{Status: &status})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, apt)
	return apt, nil
}

func (s *AppointmentService) GetDoctorAppointments(ctx context.Context, doctorID string) ([]models.AppointmentView, error) {
	oid, err := parseID(doctorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.accounts.FindByID(ctx, models.RoleDoctor, oid); err != nil {
		return nil, err
	}
	return s.cachedList(ctx, doctorAppointmentsKey+oid.Hex(), models.AppointmentFilter{DoctorID: oid})
}

// GetPatientAppointments does not require the patient to exist; an unknown id yields an
// empty list.
func (s *AppointmentService) GetPatientAppointments(ctx context.Context, patientID string) ([]models.AppointmentView, error) {
	oid, err := parseID(patientID)
	if err != nil {
		return nil, err
	}
	return s.cachedList(ctx, patientAppointmentsKey+oid.Hex(), models.AppointmentFilter{PatientID: oid})
}

func (s *AppointmentService) cachedList(ctx context.Context, key string, filter models.AppointmentFilter) ([]models.AppointmentView, error) {
	return readThrough(ctx, s.cache, key, s.ttl, s.log, func(ctx context.Context) ([]models.AppointmentView, error) {
		return s.appointments.List(ctx, filter, models.ExpandBrief)
	})
}

func (s *AppointmentService) GetAllAppointments(ctx context.Context) ([]models.AppointmentView, error) {
	return s.appointments.List(ctx, models.AppointmentFilter{}, models.ExpandFull)
}

func (s *AppointmentService) GetAppointmentsByStatus(ctx context.Context, patientID string, status models.AppointmentStatus) ([]models.AppointmentView, error) {
	oid, err := parseID(patientID)
	if err != nil {
		return nil, err
	}
	return s.appointments.List(ctx, models.AppointmentFilter{PatientID: oid, Status: status}, models.ExpandBrief)
}

func (s *AppointmentService) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.appointments.FindByID(ctx, oid)
}

func (s *AppointmentService) UpdateAppointment(ctx context.Context, id string, patch models.AppointmentPatch) (*models.Appointment, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return s.appointments.FindByID(ctx, oid)
	}
	apt, err := s.appointments.Update(ctx, oid, patch)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, apt)
	return apt, nil
}

func (s *AppointmentService) DeleteAppointment(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	apt, err := s.appointments.Delete(ctx, oid)
	if err != nil {
		return err
	}
	s.invalidate(ctx, apt)
	return nil
}

// invalidate drops the cached lists that contain apt. Failures are logged only; the entry
// then lives until its TTL.
func (s *AppointmentService) invalidate(ctx context.Context, apt *models.Appointment) {
	keys := []string{
		doctorAppointmentsKey + apt.DoctorID.Hex(),
		patientAppointmentsKey + apt.PatientRef.ID.Hex(),
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warn("failed to invalidate appointment cache", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (s *AppointmentService) notifyPatient(ctx context.Context, apt *models.Appointment, title, body string) {
	patient, err := s.accounts.FindByID(ctx, apt.PatientRef.Kind.Role(), apt.PatientRef.ID)
	if err != nil {
		s.log.Debug("skipping notification, patient not found",
			zap.String("appointment", apt.ID.Hex()), zap.Error(err))
		return
	}
	s.notifier.Notify(ctx, patient, title, body)
}
