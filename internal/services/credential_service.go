package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/VJYGOUR/auth-system/internal/apperr"
	"github.com/VJYGOUR/auth-system/internal/models"
	"github.com/VJYGOUR/auth-system/internal/validation"
)

// UserRepository is the storage collaborator for user records.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	Insert(ctx context.Context, user models.User) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// PasswordPool hashes and verifies passwords; see auth.HashPool.
type PasswordPool interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, hash string) (bool, error)
	NeedsUpgrade(hash string) bool
}

// CredentialServiceProvider defines the interface for credential services.
type CredentialServiceProvider interface {
	Signup(ctx context.Context, name, email, password string) (models.PublicUser, error)
	Login(ctx context.Context, email, password string) (models.PublicUser, error)
	CurrentUser(ctx context.Context, id string) (models.PublicUser, error)
}

// CredentialService registers and authenticates users. It is the only
// writer of user records.
type CredentialService struct {
	users     UserRepository
	passwords PasswordPool
	names     *bluemonday.Policy
	tracer    trace.Tracer
	now       func() time.Time

	// dummyHash is verified when the email is unknown so that a miss costs
	// as much as a wrong password.
	dummyHash string
}

// NewCredentialService creates a new CredentialService. It hashes a random
// password once to build the dummy hash, so it costs one hash at startup.
func NewCredentialService(ctx context.Context, users UserRepository, passwords PasswordPool) (*CredentialService, error) {
	random := make([]byte, 16)
	if _, err := rand.Read(random); err != nil {
		return nil, oops.Code("CREDENTIALS_INIT_FAILED").Wrap(err)
	}
	dummy, err := passwords.Hash(ctx, hex.EncodeToString(random))
	if err != nil {
		return nil, oops.Code("CREDENTIALS_INIT_FAILED").With("operation", "hash dummy password").Wrap(err)
	}

	return &CredentialService{
		users:     users,
		passwords: passwords,
		names:     bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/VJYGOUR/auth-system/internal/services"),
		now:       time.Now,
		dummyHash: dummy,
	}, nil
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup validates the input, enforces email uniqueness and stores a new
// user with a hashed password.
func (s *CredentialService) Signup(ctx context.Context, name, email, password string) (user models.PublicUser, err error) {
	ctx, span := s.tracer.Start(ctx, "CredentialService.Signup")
	defer func() { endSpan(span, err) }()

	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	fields := validation.Validate(validation.SignupRules, map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	if _, bad := fields["name"]; !bad && s.names.Sanitize(name) != name {
		fields["name"] = "Name must not contain markup"
	}
	if len(fields) > 0 {
		return models.PublicUser{}, apperr.Validation(fields)
	}

	_, err = s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return models.PublicUser{}, oops.Code("USER_EMAIL_TAKEN").Wrap(apperr.ErrConflict)
	case !errors.Is(err, apperr.ErrNotFound):
		return models.PublicUser{}, oops.Code("SIGNUP_FAILED").With("operation", "find user by email").Wrap(err)
	}

	hash, err := s.passwords.Hash(ctx, password)
	if err != nil {
		return models.PublicUser{}, oops.Code("SIGNUP_FAILED").With("operation", "hash password").Wrap(err)
	}

	record := models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Insert(ctx, record); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return models.PublicUser{}, err
		}
		return models.PublicUser{}, oops.Code("SIGNUP_FAILED").With("operation", "insert user").Wrap(err)
	}

	span.SetAttributes(attribute.String("user.id", record.ID))
	return record.Public(), nil
}

// Login verifies credentials. An unknown email and a wrong password fail
// with the same apperr.ErrAuthentication after the same amount of work.
func (s *CredentialService) Login(ctx context.Context, email, password string) (user models.PublicUser, err error) {
	ctx, span := s.tracer.Start(ctx, "CredentialService.Login")
	defer func() { endSpan(span, err) }()

	record, lookupErr := s.users.FindByEmail(ctx, NormalizeEmail(email))
	exists := lookupErr == nil
	if lookupErr != nil && !errors.Is(lookupErr, apperr.ErrNotFound) {
		return models.PublicUser{}, oops.Code("LOGIN_FAILED").With("operation", "find user by email").Wrap(lookupErr)
	}

	target := s.dummyHash
	if exists {
		target = record.PasswordHash
	}

	ok, verifyErr := s.passwords.Verify(ctx, password, target)
	if verifyErr != nil && exists {
		return models.PublicUser{}, oops.Code("LOGIN_FAILED").With("operation", "verify password").With("user_id", record.ID).Wrap(verifyErr)
	}
	if !exists || !ok {
		return models.PublicUser{}, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(apperr.ErrAuthentication)
	}

	if s.passwords.NeedsUpgrade(record.PasswordHash) {
		s.upgradeHash(ctx, record.ID, password)
	}

	span.SetAttributes(attribute.String("user.id", record.ID))
	return record.Public(), nil
}

// upgradeHash rehashes with the current settings. Login succeeds whether
// or not this works.
func (s *CredentialService) upgradeHash(ctx context.Context, userID, password string) {
	hash, err := s.passwords.Hash(ctx, password)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, userID, hash)
	}
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to upgrade password hash")
		return
	}
	log.Info().Str("user_id", userID).Msg("Upgraded password hash")
}

// CurrentUser returns the public view of the user with the given id.
func (s *CredentialService) CurrentUser(ctx context.Context, id string) (models.PublicUser, error) {
	record, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.PublicUser{}, err
		}
		return models.PublicUser{}, oops.Code("USER_LOOKUP_FAILED").With("user_id", id).Wrap(err)
	}
	return record.Public(), nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
