package service

import (
	"context"
	"errors"
	"strings"

	"github.com/quickchat/server/internal/blob"
	"github.com/quickchat/server/internal/common/clock"
	"github.com/quickchat/server/internal/common/crypto"
	commonerrors "github.com/quickchat/server/internal/common/errors"
	"github.com/quickchat/server/internal/common/logger"
	"github.com/quickchat/server/internal/observability/metrics"
	userdomain "github.com/quickchat/server/internal/user/domain"
	userrepo "github.com/quickchat/server/internal/user/repository"
)

type AuthResult struct {
	Token string
	User  userdomain.User
}

// AuthService handles account creation, credential checks, and profile
// updates. Tokens it issues are the only way to reach the rest of the API.
type AuthService struct {
	users  userrepo.Repository
	hasher crypto.PasswordHasher
	idGen  crypto.IDGenerator
	clk    clock.Clock
	tokens *TokenIssuer
	blobs  blob.Store
	log    *logger.Logger
}

func NewAuthService(
	users userrepo.Repository,
	hasher crypto.PasswordHasher,
	idGen crypto.IDGenerator,
	clk clock.Clock,
	tokens *TokenIssuer,
	blobs blob.Store,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		idGen:  idGen,
		clk:    clk,
		tokens: tokens,
		blobs:  blobs,
		log:    log,
	}
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (AuthResult, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FullName = strings.TrimSpace(input.FullName)
	if err := validateInput(input); err != nil {
		return AuthResult{}, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return AuthResult{}, commonerrors.ErrInternalError.WithCause(err)
	}

	now := s.clk.Now()
	user := userdomain.User{
		ID:           userdomain.ID(s.idGen.NewID()),
		Email:        input.Email,
		FullName:     input.FullName,
		PasswordHash: hash,
		CreatedAt:    now,
		LastSeenAt:   now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, userrepo.ErrEmailAlreadyExists) {
			return AuthResult{}, commonerrors.ErrEmailAlreadyExists
		}
		return AuthResult{}, commonerrors.ErrDatabaseError.WithCause(err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return AuthResult{}, err
	}

	metrics.SignupsTotal.Inc()
	s.log.Infof("new account %s", user.ID)
	return AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateInput(input); err != nil {
		return AuthResult{}, err
	}

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
			return AuthResult{}, commonerrors.ErrInvalidCredentials
		}
		return AuthResult{}, commonerrors.ErrDatabaseError.WithCause(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		return AuthResult{}, commonerrors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return AuthResult{}, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return AuthResult{Token: token, User: user}, nil
}

// CheckAuth resolves the identity behind a verified token to a full profile.
func (s *AuthService) CheckAuth(ctx context.Context, userID string) (userdomain.User, error) {
	user, err := s.users.FindByID(ctx, userdomain.ID(userID))
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return userdomain.User{}, commonerrors.ErrUserNotFound
		}
		return userdomain.User{}, commonerrors.ErrDatabaseError.WithCause(err)
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (userdomain.User, error) {
	input.FullName = strings.TrimSpace(input.FullName)
	if err := validateInput(input); err != nil {
		return userdomain.User{}, err
	}

	var picURL string
	if len(input.ProfilePic) > 0 {
		url, err := s.blobs.Upload(ctx, input.ProfilePic)
		if err != nil {
			switch {
			case errors.Is(err, blob.ErrNotAnImage),
				errors.Is(err, blob.ErrMalformedDataURI),
				errors.Is(err, blob.ErrImageTooLarge):
				return userdomain.User{}, commonerrors.ErrInvalidImage.WithCause(err)
			default:
				return userdomain.User{}, commonerrors.ErrUploadFailed.WithCause(err)
			}
		}
		picURL = url
	}

	user, err := s.users.UpdateProfile(ctx, userdomain.ID(userID), userdomain.ProfileUpdate{
		FullName:      input.FullName,
		Bio:           input.Bio,
		ProfilePicURL: picURL,
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return userdomain.User{}, commonerrors.ErrUserNotFound
		}
		return userdomain.User{}, commonerrors.ErrDatabaseError.WithCause(err)
	}
	return user, nil
}
