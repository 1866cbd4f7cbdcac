// Package memory is an in-process implementation of the account, appointment and review
// stores.
// It enforces the same uniqueness rules as the Mongo indexes and counts calls per method,
// which makes it suitable for tests and local runs without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-api/internal/apperr"
	"github.com/harentsoaR/clinic-api/internal/models"
)

type Store struct {
	mu           sync.Mutex
	accounts     map[models.Role]map[primitive.ObjectID]models.Account
	appointments map[primitive.ObjectID]models.Appointment
	specialties  map[primitive.ObjectID]models.Specialty
	reviews      map[primitive.ObjectID]models.Review
	calls        map[string]int
	now          func() time.Time
}

func New() *Store {
	return &Store{
		accounts: map[models.Role]map[primitive.ObjectID]models.Account{
			models.RoleUser:   {},
			models.RoleDoctor: {},
			models.RoleAdmin:  {},
		},
		appointments: map[primitive.ObjectID]models.Appointment{},
		specialties:  map[primitive.ObjectID]models.Specialty{},
		reviews:      map[primitive.ObjectID]models.Review{},
		calls:        map[string]int{},
		now:          time.Now,
	}
}

// Calls returns how many times the named method has been invoked.
func (s *Store) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// Count returns the number of live records in the role's collection.
func (s *Store) Count(role models.Role) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts[role])
}

// AppointmentCount returns the number of stored appointments.
func (s *Store) AppointmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appointments)
}

// AddSpecialty seeds a specialty used when expanding doctors.
func (s *Store) AddSpecialty(sp models.Specialty) models.Specialty {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sp.ID.IsZero() {
		sp.ID = primitive.NewObjectID()
	}
	s.specialties[sp.ID] = sp
	return sp
}

func (s *Store) track(method string) {
	s.calls[method]++
}

// --- accounts ---

func (s *Store) FindByID(_ context.Context, role models.Role, id primitive.ObjectID) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("FindByID")

	acct, ok := s.accounts[role][id]
	if !ok {
		return nil, apperr.NotFound(roleResource(role))
	}
	return &acct, nil
}

func (s *Store) FindByEmail(_ context.Context, role models.Role, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("FindByEmail")

	for _, acct := range s.accounts[role] {
		if acct.Email == email {
			found := acct
			return &found, nil
		}
	}
	return nil, apperr.NotFound(roleResource(role))
}

func (s *Store) List(_ context.Context, role models.Role) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("List")

	out := make([]models.Account, 0, len(s.accounts[role]))
	for _, acct := range s.accounts[role] {
		out = append(out, acct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (s *Store) Create(_ context.Context, acct *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("Create")
	return s.insertAccount(acct)
}

func (s *Store) insertAccount(acct *models.Account) error {
	coll, ok := s.accounts[acct.Role]
	if !ok {
		return apperr.InvalidArgument("unknown role " + string(acct.Role))
	}
	if acct.ID.IsZero() {
		acct.ID = primitive.NewObjectID()
	}
	if _, exists := coll[acct.ID]; exists {
		return apperr.Conflict("duplicate id")
	}
	if err := checkUnique(coll, acct); err != nil {
		return err
	}
	now := s.now()
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = now
	}
	acct.UpdatedAt = now
	coll[acct.ID] = *acct
	return nil
}

func checkUnique(coll map[primitive.ObjectID]models.Account, acct *models.Account) error {
	for id, other := range coll {
		if id == acct.ID {
			continue
		}
		if other.Email == acct.Email {
			return apperr.Conflict("Email already in use")
		}
		if acct.Phone != "" && other.Phone == acct.Phone {
			return apperr.Conflict("Phone already in use")
		}
	}
	return nil
}

func (s *Store) Update(_ context.Context, role models.Role, id primitive.ObjectID, fields models.AccountFields) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("Update")

	coll := s.accounts[role]
	acct, ok := coll[id]
	if !ok {
		return nil, apperr.NotFound(roleResource(role))
	}
	fields.Apply(&acct)
	if err := checkUnique(coll, &acct); err != nil {
		return nil, err
	}
	acct.UpdatedAt = s.now()
	coll[id] = acct
	return &acct, nil
}

func (s *Store) Delete(_ context.Context, role models.Role, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("Delete")

	if _, ok := s.accounts[role][id]; !ok {
		return apperr.NotFound(roleResource(role))
	}
	delete(s.accounts[role], id)
	return nil
}

func (s *Store) Transfer(_ context.Context, from, to *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("Transfer")

	old, ok := s.accounts[from.Role][from.ID]
	if !ok {
		return apperr.NotFound(roleResource(from.Role))
	}
	delete(s.accounts[from.Role], from.ID)
	if err := s.insertAccount(to); err != nil {
		s.accounts[from.Role][from.ID] = old
		return err
	}
	return nil
}

// --- appointments ---

// Appointments is the appointment collection of a Store. It shares state with the
// account collections so listings can expand doctor and patient references.
type Appointments struct {
	*Store
}

// Appointments returns the appointment store view.
func (s *Store) Appointments() *Appointments {
	return &Appointments{Store: s}
}

func (a *Appointments) Create(_ context.Context, apt *models.Appointment) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.track("CreateAppointment")

	if a.slotTaken(apt.DoctorID, apt.Date, apt.Time, primitive.NilObjectID) {
		return apperr.Conflict("This time slot is already booked")
	}
	if apt.ID.IsZero() {
		apt.ID = primitive.NewObjectID()
	}
	now := a.now()
	apt.CreatedAt = now
	apt.UpdatedAt = now
	a.appointments[apt.ID] = *apt
	return nil
}

func (s *Store) slotTaken(doctorID primitive.ObjectID, date, tm string, except primitive.ObjectID) bool {
	for id, apt := range s.appointments {
		if id != except && apt.DoctorID == doctorID && apt.Date == date && apt.Time == tm {
			return true
		}
	}
	return false
}

func (a *Appointments) FindByID(_ context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.track("FindAppointment")

	apt, ok := a.appointments[id]
	if !ok {
		return nil, apperr.NotFound("Appointment")
	}
	return &apt, nil
}

func (a *Appointments) SlotTaken(_ context.Context, doctorID primitive.ObjectID, date, tm string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.track("SlotTaken")
	return a.slotTaken(doctorID, date, tm, primitive.NilObjectID), nil
}

func (a *Appointments) Update(_ context.Context, id primitive.ObjectID, patch models.AppointmentPatch) (*models.Appointment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.track("UpdateAppointment")

	apt, ok := a.appointments[id]
	if !ok {
		return nil, apperr.NotFound("Appointment")
	}
	patch.Apply(&apt)
	if a.slotTaken(apt.DoctorID, apt.Date, apt.Time, id) {
		return nil, apperr.Conflict("This time slot is already booked")
	}
	apt.UpdatedAt = a.now()
	a.appointments[id] = apt
	return &apt, nil
}

func (a *Appointments) Delete(_ context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.track("DeleteAppointment")

	apt, ok := a.appointments[id]
	if !ok {
		return nil, apperr.NotFound("Appointment")
	}
	delete(a.appointments, id)
	return &apt, nil
}

func (a *Appointments) List(_ context.Context, filter models.AppointmentFilter, expand models.Expansion) ([]models.AppointmentView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.track("ListAppointments")

	out := make([]models.AppointmentView, 0)
	for _, apt := range a.appointments {
		if !filter.DoctorID.IsZero() && apt.DoctorID != filter.DoctorID {
			continue
		}
		if !filter.PatientID.IsZero() && apt.PatientRef.ID != filter.PatientID {
			continue
		}
		if filter.Status != "" && apt.Status != filter.Status {
			continue
		}
		out = append(out, a.expand(apt, expand))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (s *Store) expand(apt models.Appointment, expand models.Expansion) models.AppointmentView {
	view := models.AppointmentView{Appointment: apt}
	if expand == models.ExpandNone {
		return view
	}
	if doc, ok := s.accounts[models.RoleDoctor][apt.DoctorID]; ok {
		summary := &models.DoctorSummary{ID: doc.ID, Name: doc.Name}
		if expand == models.ExpandFull {
			summary.Hospital = doc.Hospital
			summary.Address = doc.Address
			if sp, ok := s.specialties[doc.Specialty]; ok {
				summary.Specialty = sp.Summary()
			}
		} else {
			summary.AvatarURL = doc.AvatarURL
		}
		view.Doctor = summary
	}
	if p, ok := s.accounts[apt.PatientRef.Kind.Role()][apt.PatientRef.ID]; ok {
		view.Patient = &models.PatientSummary{ID: p.ID, Name: p.Name}
	}
	return view
}

// --- reviews ---

// Reviews is the review collection of a Store.
type Reviews struct {
	*Store
}

func (s *Store) Reviews() *Reviews {
	return &Reviews{Store: s}
}

func (r *Reviews) Create(_ context.Context, rev *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.track("CreateReview")

	for _, other := range r.reviews {
		if other.DoctorID == rev.DoctorID && other.UserID == rev.UserID {
			return apperr.Conflict("You have already reviewed this doctor")
		}
	}
	if rev.ID.IsZero() {
		rev.ID = primitive.NewObjectID()
	}
	now := r.now()
	rev.CreatedAt = now
	rev.UpdatedAt = now
	r.reviews[rev.ID] = *rev
	return nil
}

func (r *Reviews) FindByID(_ context.Context, id primitive.ObjectID) (*models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.track("FindReview")

	rev, ok := r.reviews[id]
	if !ok {
		return nil, apperr.NotFound("Review")
	}
	return &rev, nil
}

func (r *Reviews) Delete(_ context.Context, id primitive.ObjectID) (*models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.track("DeleteReview")

	rev, ok := r.reviews[id]
	if !ok {
		return nil, apperr.NotFound("Review")
	}
	delete(r.reviews, id)
	return &rev, nil
}

func (r *Reviews) ListByDoctor(_ context.Context, doctorID primitive.ObjectID) ([]models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.track("ListReviews")

	out := make([]models.Review, 0)
	for _, rev := range r.reviews {
		if rev.DoctorID == doctorID {
			out = append(out, rev)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out, nil
}

func roleResource(role models.Role) string {
	switch role {
	case models.RoleDoctor:
		return "Doctor"
	case models.RoleAdmin:
		return "Admin"
	}
	return "User"
}
