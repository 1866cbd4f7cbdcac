package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/harentsoaR/clinic-api/internal/apperr"
	"github.com/harentsoaR/clinic-api/internal/models"
)

// lookupOrder is the order in which collections are searched when the role is unknown.
var lookupOrder = []models.Role{models.RoleUser, models.RoleDoctor, models.RoleAdmin}

// AdminService manages accounts and moves them between the role collections.
type AdminService struct {
	accounts AccountStore
	hasher   PasswordHasher
	tokens   TokenIssuer
	uploader Uploader
	log      *zap.Logger
}

func NewAdminService(accounts AccountStore, hasher PasswordHasher, tokens TokenIssuer, uploader Uploader, log *zap.Logger) *AdminService {
	return &AdminService{accounts: accounts, hasher: hasher, tokens: tokens, uploader: uploader, log: log}
}

type CreateAdminInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidArgument("Invalid ID format")
	}
	return oid, nil
}

func (s *AdminService) CreateAdmin(ctx context.Context, in CreateAdminInput) (*models.Account, error) {
	email := normalizeEmail(in.Email)
	_, err := s.accounts.FindByEmail(ctx, models.RoleAdmin, email)
	if err == nil {
		return nil, apperr.Conflict("Email already in use")
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("checking admin email: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	admin := &models.Account{
		Name:     in.Name,
		Email:    email,
		Phone:    in.Phone,
		Password: hash,
		Role:     models.RoleAdmin,
	}
	if err := s.accounts.Create(ctx, admin); err != nil {
		return nil, err
	}
	s.log.Info("admin created", zap.String("id", admin.ID.Hex()))
	return admin, nil
}

// UpdateAccount patches a User record and, when patch.Role names another role, moves it
// into that role's collection. It reports changed == false when the patch is a no-op, in
// which case storage is not touched.
func (s *AdminService) UpdateAccount(ctx context.Context, id string, patch models.AccountPatch) (acct *models.Account, changed bool, err error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, false, err
	}
	user, err := s.accounts.FindByID(ctx, models.RoleUser, oid)
	if err != nil {
		return nil, false, err
	}

	roleChanged := patch.Role != "" && patch.Role != user.Role
	if roleChanged && !patch.Role.Valid() {
		return nil, false, apperr.InvalidArgument("Invalid role")
	}

	fields, err := s.buildFields(ctx, user, patch)
	if err != nil {
		return nil, false, err
	}
	if fields.Empty() && !roleChanged {
		return user, false, nil
	}

	if !roleChanged {
		updated, err := s.accounts.Update(ctx, models.RoleUser, oid, fields)
		if err != nil {
			return nil, false, err
		}
		return updated, true, nil
	}

	// The patched fields travel with the record so a failed move leaves it untouched.
	patched := *user
	fields.Apply(&patched)
	patched.Role = models.RoleUser
	moved, err := s.transition(ctx, &patched, patch.Role)
	if err != nil {
		return nil, false, err
	}
	return moved, true, nil
}

// buildFields keeps only the non-empty patch fields. The password is re-hashed only when it
// differs from the current one.
func (s *AdminService) buildFields(ctx context.Context, current *models.Account, patch models.AccountPatch) (models.AccountFields, error) {
	var f models.AccountFields
	if email := normalizeEmail(patch.Email); email != "" {
		f.Email = &email
	}
	if patch.Name != "" {
		f.Name = &patch.Name
	}
	if patch.Phone != "" {
		f.Phone = &patch.Phone
	}
	if patch.Address != "" {
		f.Address = &patch.Address
	}
	if patch.Description != "" {
		f.Description = &patch.Description
	}
	if strings.TrimSpace(patch.Password) != "" && !s.hasher.Verify(current.Password, patch.Password) {
		hash, err := s.hasher.Hash(patch.Password)
		if err != nil {
			return f, fmt.Errorf("hashing password: %w", err)
		}
		f.Password = &hash
	}
	if patch.AvatarImage != "" {
		url, err := s.uploader.Upload(ctx, patch.AvatarImage, "Users/"+current.ID.Hex()+"/Avatar")
		if err != nil {
			return f, fmt.Errorf("uploading avatar: %w", err)
		}
		f.AvatarURL = &url
	}
	return f, nil
}

// ChangeRole finds the account in the user, doctor or admin collection and moves it to role.
func (s *AdminService) ChangeRole(ctx context.Context, id string, role models.Role) (*models.Account, bool, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, false, err
	}
	if !role.Valid() {
		return nil, false, apperr.InvalidArgument("Invalid role")
	}
	acct, err := s.locate(ctx, oid)
	if err != nil {
		return nil, false, err
	}
	if acct.Role == role {
		return acct, false, nil
	}
	moved, err := s.transition(ctx, acct, role)
	if err != nil {
		return nil, false, err
	}
	return moved, true, nil
}

// FindAccount looks id up in every role collection.
func (s *AdminService) FindAccount(ctx context.Context, id string) (*models.Account, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.locate(ctx, oid)
}

// locate returns the account with Role set to the collection it was found in.
func (s *AdminService) locate(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	for _, role := range lookupOrder {
		acct, err := s.accounts.FindByID(ctx, role, id)
		if err == nil {
			acct.Role = role
			return acct, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
	}
	return nil, apperr.NotFound("Account")
}

// transition moves from into newRole's collection carrying name, email, phone and password
// hash. Demotion to user restores the origin id; promotion issues a new id that remembers
// the origin.
func (s *AdminService) transition(ctx context.Context, from *models.Account, newRole models.Role) (*models.Account, error) {
	src := *from
	if src.Role != models.RoleAdmin && src.Role != models.RoleDoctor {
		src.Role = models.RoleUser
	}

	origin := src.OriginID
	if origin.IsZero() {
		origin = src.ID
	}

	to := &models.Account{
		Name:     src.Name,
		Email:    src.Email,
		Phone:    src.Phone,
		Password: src.Password,
		Role:     newRole,
	}
	if newRole == models.RoleUser {
		to.ID = origin
	} else {
		to.ID = primitive.NewObjectID()
		to.OriginID = origin
	}

	if err := s.accounts.Transfer(ctx, &src, to); err != nil {
		return nil, fmt.Errorf("moving account from %s to %s: %w", src.Role, newRole, err)
	}
	s.log.Info("account role changed",
		zap.String("from_id", src.ID.Hex()),
		zap.String("to_id", to.ID.Hex()),
		zap.String("from_role", string(src.Role)),
		zap.String("to_role", string(newRole)))
	return to, nil
}

func (s *AdminService) DeleteAccount(ctx context.Context, id string) error {
	return s.deleteIn(ctx, models.RoleUser, id)
}

func (s *AdminService) DeleteDoctor(ctx context.Context, id string) error {
	return s.deleteIn(ctx, models.RoleDoctor, id)
}

func (s *AdminService) deleteIn(ctx context.Context, role models.Role, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.accounts.Delete(ctx, role, oid); err != nil {
		return err
	}
	s.log.Info("account deleted", zap.String("id", id), zap.String("role", string(role)))
	return nil
}

func (s *AdminService) ListUsers(ctx context.Context) ([]models.Account, error) {
	return s.accounts.List(ctx, models.RoleUser)
}

func (s *AdminService) ListDoctors(ctx context.Context) ([]models.Account, error) {
	return s.accounts.List(ctx, models.RoleDoctor)
}

func (s *AdminService) GetUser(ctx context.Context, id string) (*models.Account, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.accounts.FindByID(ctx, models.RoleUser, oid)
}

// GenerateToken signs an access token for acct.
func (s *AdminService) GenerateToken(acct *models.Account) (string, error) {
	return s.tokens.Issue(acct.ID.Hex(), acct.Email, acct.Name, string(acct.Role))
}
