package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/users"
	pkgauth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

const invalidOTPMessage = "invalid or expired OTP"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Service exposes the passwordless login flow.
type Service interface {
	RequestOTP(ctx context.Context, username string) (*OTPIssued, error)
	VerifyOTP(ctx context.Context, username, code string) (*LoginResponse, error)
	Authenticate(ctx context.Context, accessToken, refreshToken string) (*AuthenticateResponse, error)
	Logout(ctx context.Context, accessID string) error
}

type ServiceParams struct {
	Users             *users.Repository
	TransactionRunner txRunner
	SessionManager    sessionManager
	OTPStore          OTPStore
	Sender            OTPSender
	JWTConfig         config.JWTConfig
	OTPConfig         config.OTPConfig
	Logger            *logger.Logger
	Now               func() time.Time
}

type service struct {
	users    *users.Repository
	tx       txRunner
	sessions sessionManager
	otps     OTPStore
	sender   OTPSender
	jwtCfg   config.JWTConfig
	otpCfg   config.OTPConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the auth service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Users == nil:
		return nil, fmt.Errorf("users repository required")
	case params.TransactionRunner == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.SessionManager == nil:
		return nil, fmt.Errorf("session manager required")
	case params.OTPStore == nil:
		return nil, fmt.Errorf("otp store required")
	case params.Sender == nil:
		return nil, fmt.Errorf("otp sender required")
	}
	if params.OTPConfig.TTL <= 0 {
		return nil, fmt.Errorf("otp ttl must be positive")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		users:    params.Users,
		tx:       params.TransactionRunner,
		sessions: params.SessionManager,
		otps:     params.OTPStore,
		sender:   params.Sender,
		jwtCfg:   params.JWTConfig,
		otpCfg:   params.OTPConfig,
		logg:     logg,
		now:      now,
	}, nil
}

func (s *service) RequestOTP(ctx context.Context, username string) (*OTPIssued, error) {
	username = normalizeUsername(username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}

	code, err := security.GenerateOTP()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
	}
	hash, err := security.HashOTP(code, s.otpCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash otp")
	}
	if err := s.otps.Put(ctx, username, hash, s.otpCfg.TTL); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store otp")
	}
	if err := s.sender.Send(ctx, username, code); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deliver otp")
	}

	return &OTPIssued{Username: username, ExpiresIn: int(s.otpCfg.TTL / time.Second)}, nil
}

func (s *service) VerifyOTP(ctx context.Context, username, code string) (*LoginResponse, error) {
	username = normalizeUsername(username)
	code = strings.TrimSpace(code)
	if username == "" || code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and code are required")
	}

	hash, err := s.otps.Get(ctx, username)
	if err != nil {
		if errors.Is(err, ErrOTPNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, invalidOTPMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load otp")
	}
	ok, err := security.VerifyOTP(code, hash)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "username", username), "auth.otp.undecodable_hash")
	}
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, invalidOTPMessage)
	}

	var user *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		found, _, err := repo.GetOrCreate(ctx, username)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
		}
		if !found.IsActive {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "account is disabled")
		}
		loginAt := s.now().UTC()
		if err := repo.UpdateLastLogin(ctx, found.ID, loginAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
		}
		found.LastLoginAt = &loginAt
		user = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	accessID := session.NewAccessID()
	access, err := s.mint(user, accessID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}
	if err := s.otps.Delete(ctx, username); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "username", username), "auth.otp.delete_failed", err)
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.login")
	return &LoginResponse{AccessToken: access, RefreshToken: refresh, User: users.FromModel(user)}, nil
}

// Authenticate prefers the access token and only falls back to rotating the
// refresh token when the access token no longer validates.
func (s *service) Authenticate(ctx context.Context, accessToken, refreshToken string) (*AuthenticateResponse, error) {
	accessToken = strings.TrimSpace(accessToken)
	refreshToken = strings.TrimSpace(refreshToken)
	if accessToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "access token required")
	}

	if claims, err := pkgauth.ParseAccessToken(s.jwtCfg, accessToken); err == nil {
		user, err := s.activeUser(ctx, claims.UserID)
		if err != nil {
			return nil, err
		}
		return &AuthenticateResponse{UserDTO: *users.FromModel(user)}, nil
	}

	if refreshToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired token")
	}
	stale, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired token")
	}
	user, err := s.activeUser(ctx, stale.UserID)
	if err != nil {
		return nil, err
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, stale.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}
	access, err := s.mint(user, newAccessID)
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.refresh")
	return &AuthenticateResponse{
		UserDTO:      *users.FromModel(user),
		AccessToken:  access,
		RefreshToken: newRefresh,
	}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) activeUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is disabled")
	}
	return user, nil
}

func (s *service) mint(user *models.User, accessID string) (string, error) {
	token, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID:   user.ID,
		Username: user.Username,
		JTI:      accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return token, nil
}
