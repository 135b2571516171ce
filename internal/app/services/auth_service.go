package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/careportal/internal/app/models"
	"github.com/yigit/careportal/internal/app/models/dto"
	"github.com/yigit/careportal/internal/pkg/apperrors"
	"github.com/yigit/careportal/internal/pkg/auth"
)

// AuthService handles authentication for the three portals.
type AuthService struct {
	applications ApplicationStore
	students     StudentStore
	staff        StaffStore
	jwtService   *auth.JWTService
	logger       zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	applications ApplicationStore,
	students StudentStore,
	staff StaffStore,
	jwtService *auth.JWTService,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		applications: applications,
		students:     students,
		staff:        staff,
		jwtService:   jwtService,
		logger:       logger,
	}
}

// Login checks credentials against the portal's records and issues an
// access token for the resulting actor.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" || req.Password == "" {
		return nil, apperrors.NewValidationError("identifier and password are required")
	}

	actor, hash, active, err := s.lookup(ctx, req.Portal, identifier)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			s.logger.Info().Str("portal", req.Portal).Msg("Login for unknown account")
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(hash, req.Password) {
		s.logger.Info().Str("portal", req.Portal).Str("subject", actor.SubjectID).Msg("Login with wrong password")
		return nil, apperrors.ErrInvalidCredentials
	}
	// Account state is only revealed to callers holding the password.
	if !active {
		return nil, apperrors.NewForbiddenError("student account is not active")
	}

	return s.generateTokenResponse(actor)
}

// lookup resolves the portal account and its password hash. active is false
// for accounts that may not sign in.
func (s *AuthService) lookup(ctx context.Context, portal, identifier string) (actor models.Actor, hash string, active bool, err error) {
	switch portal {
	case dto.PortalApplicant:
		app, err := s.applications.GetApplicationByUsername(ctx, identifier)
		if err != nil {
			return models.Actor{}, "", false, err
		}
		return models.Actor{
			Role:      models.RoleApplicant,
			Email:     app.Email,
			SubjectID: app.ID,
			Name:      app.FullName(),
		}, app.PasswordHash, true, nil

	case dto.PortalStudent:
		st, err := s.students.GetStudent(ctx, identifier)
		if err != nil {
			return models.Actor{}, "", false, err
		}
		return models.Actor{
			Role:       models.RoleStudent,
			Email:      st.Email,
			SubjectID:  st.StudentID,
			Name:       st.FullName(),
			Department: st.Department,
		}, st.PasswordHash, st.Status == models.StudentActive, nil

	case dto.PortalStaff:
		acct, err := s.staff.GetStaffByEmail(ctx, strings.ToLower(identifier))
		if err != nil {
			return models.Actor{}, "", false, err
		}
		return models.Actor{
			Role:       acct.Role,
			Email:      acct.Email,
			SubjectID:  acct.ID,
			Name:       acct.FullName,
			Department: acct.Department,
		}, acct.PasswordHash, true, nil
	}
	return models.Actor{}, "", false, apperrors.NewValidationError("unknown portal " + portal)
}

// CreateStaff registers a console account. Only CARE staff may do this.
func (s *AuthService) CreateStaff(ctx context.Context, actor models.Actor, req *dto.CreateStaffRequest) (*models.StaffAccount, error) {
	if actor.Role != models.RoleCareStaff {
		return nil, apperrors.NewForbiddenError("only CARE staff may create accounts")
	}
	role := models.Role(req.Role)
	if !role.IsStaff() {
		return nil, apperrors.NewValidationError("role must be CARE_STAFF or DEPARTMENT_REFERRER")
	}
	return s.createStaff(ctx, req.Email, req.Password, req.FullName, role, req.Department)
}

// EnsureStaff creates the account unless the email is already registered.
// Used for seeding.
func (s *AuthService) EnsureStaff(ctx context.Context, email, password, fullName string) (bool, error) {
	_, err := s.staff.GetStaffByEmail(ctx, strings.ToLower(email))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, apperrors.ErrResourceNotFound) {
		return false, err
	}
	if _, err := s.createStaff(ctx, email, password, fullName, models.RoleCareStaff, ""); err != nil {
		if errors.Is(err, apperrors.ErrResourceAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *AuthService) createStaff(ctx context.Context, email, password, fullName string, role models.Role, department string) (*models.StaffAccount, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	acct := &models.StaffAccount{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(fullName),
		Role:         role,
		Department:   strings.TrimSpace(department),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.staff.CreateStaff(ctx, acct); err != nil {
		return nil, err
	}
	s.logger.Info().Str("staffID", acct.ID).Str("role", string(role)).Msg("Staff account created")
	return acct, nil
}

func (s *AuthService) generateTokenResponse(actor models.Actor) (*dto.AuthResponse, error) {
	token, expiresIn, err := s.jwtService.GenerateAccessToken(actor)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}
	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int64(expiresIn),
		},
		User: dto.NewActorData(actor),
	}, nil
}
