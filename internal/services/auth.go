package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/harentsoaR/clinic-api/internal/apperr"
	"github.com/harentsoaR/clinic-api/internal/models"
)

// loginOrder is the order in which collections are searched for an email on login.
var loginOrder = []models.Role{models.RoleUser, models.RoleDoctor, models.RoleAdmin}

type AuthService struct {
	accounts AccountStore
	hasher   PasswordHasher
	tokens   TokenIssuer
	log      *zap.Logger
}

func NewAuthService(accounts AccountStore, hasher PasswordHasher, tokens TokenIssuer, log *zap.Logger) *AuthService {
	return &AuthService{accounts: accounts, hasher: hasher, tokens: tokens, log: log}
}

type SignupInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
}

type LoginResult struct {
	Token   string          `json:"token"`
	Account *models.Account `json:"user"`
}

// normalizeEmail is the stored and looked-up form of every account email.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup registers a patient account.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.Account, error) {
	email := normalizeEmail(in.Email)
	_, err := s.accounts.FindByEmail(ctx, models.RoleUser, email)
	if err == nil {
		return nil, apperr.Conflict("User with this email already exists")
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	acct := &models.Account{
		Name:     in.Name,
		Email:    email,
		Phone:    in.Phone,
		Password: hash,
		Role:     models.RoleUser,
	}
	if err := s.accounts.Create(ctx, acct); err != nil {
		return nil, err
	}
	s.log.Info("account registered", zap.String("id", acct.ID.Hex()))
	return acct, nil
}

// Login finds the email in the user, doctor and admin collections, in that order.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	acct, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(acct.Password, password) {
		return nil, apperr.Unauthorized("Invalid email or password")
	}
	token, err := s.tokens.Issue(acct.ID.Hex(), acct.Email, acct.Name, string(acct.Role))
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	return &LoginResult{Token: token, Account: acct}, nil
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (*models.Account, error) {
	for _, role := range loginOrder {
		acct, err := s.accounts.FindByEmail(ctx, role, email)
		if err == nil {
			return acct, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("looking up %s: %w", role, err)
		}
	}
	return nil, apperr.Unauthorized("Invalid email or password")
}
