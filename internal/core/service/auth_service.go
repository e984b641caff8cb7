package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
)

// AuthService implements operator and customer login.
type AuthService struct {
	admins    ports.AdminRepository
	users     ports.UserRepository
	revoker   ports.TokenRevoker
	audit     ports.AuditRecorder
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(
	admins ports.AdminRepository,
	users ports.UserRepository,
	revoker ports.TokenRevoker,
	audit ports.AuditRecorder,
	jwtSecret string,
	tokenTTL time.Duration,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		admins:    admins,
		users:     users,
		revoker:   revoker,
		audit:     audit,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

func (s *AuthService) RegisterAdmin(ctx context.Context, username, password, role string) (*domain.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if role == "" {
		role = domain.RoleAdmin
	}
	if role != domain.RoleAdmin && role != domain.RoleSuperAdmin {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	created, err := s.admins.Create(ctx, &domain.Admin{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.audit.ManagementEvent(ctx, ports.ActorFromContext(ctx), "Admin Created", "created admin: "+username)
	return created, nil
}

func (s *AuthService) AdminLogin(ctx context.Context, username, password string) (string, *domain.Admin, error) {
	if username == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	admin, err := s.admins.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAdminNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken("admin:"+strconv.FormatInt(admin.ID, 10), admin.Role, admin.Username, admin.ID)
	if err != nil {
		return "", nil, err
	}

	s.audit.ManagementEvent(ctx, admin.Username, domain.ActionAdminLogin, "admin logged in")
	return token, admin, nil
}

func (s *AuthService) UserLogin(ctx context.Context, identityCard, password string) (string, *domain.User, error) {
	if identityCard == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByIdentityCard(ctx, identityCard)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	if user.Status == domain.UserBanned {
		return "", nil, domain.ErrUserBanned
	}

	token, err := s.generateToken("user:"+strconv.FormatInt(user.ID, 10), domain.RoleUser, user.Name, user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Logout revokes the token id for the remainder of the token lifetime.
func (s *AuthService) Logout(ctx context.Context, tokenID string) error {
	if tokenID == "" {
		return domain.ErrInvalidCredentials
	}
	if err := s.revoker.Revoke(ctx, tokenID, s.tokenTTL); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *AuthService) generateToken(subject, role, username string, actorID int64) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      subject,
		"role":     role,
		"username": username,
		"uid":      actorID,
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
