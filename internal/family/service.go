// Package family implements the family lifecycle and item operations on top
// of a storage.Store.
//
// Every operation acts on behalf of an authenticated user ID. Input is
// validated before the store is touched, and store errors are translated
// into the sentinels of this package.
package family

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/familysync/internal/metrics"
	"github.com/mmynk/familysync/internal/models"
	"github.com/mmynk/familysync/internal/storage"
)

// Service runs family and item operations.
type Service struct {
	store        storage.Store
	codes        CodeGenerator
	codeAttempts int
}

// Option configures a Service.
type Option func(*Service)

// WithCodeGenerator overrides RandomCodes.
func WithCodeGenerator(g CodeGenerator) Option {
	return func(s *Service) { s.codes = g }
}

// WithCodeAttempts overrides DefaultCodeAttempts.
func WithCodeAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.codeAttempts = n
		}
	}
}

// NewService creates a new Service with the given storage backend.
func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{store: store, codes: RandomCodes, codeAttempts: DefaultCodeAttempts}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateFamily creates a family named name with userID as its only member and
// makes it the user's active family. A previous membership is dropped.
func (s *Service) CreateFamily(ctx context.Context, userID, name string) (_ *models.Family, err error) {
	defer func() { observe("create_family", err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: family name is required", ErrValidation)
	}

	slog.Info("CreateFamily request received", "user_id", userID, "name", name)

	for attempt := 1; attempt <= s.codeAttempts; attempt++ {
		code, err := s.codes.NewCode()
		if err != nil {
			return nil, fmt.Errorf("generate family code: %w", err)
		}

		_, err = s.store.GetFamily(ctx, code)
		switch {
		case err == nil:
			slog.Debug("Family code collision", "code", code, "attempt", attempt)
			continue
		case !errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("check family code: %w", err)
		}

		family := &models.Family{ID: code, Name: name}
		err = s.store.CreateFamily(ctx, family, userID)
		if errors.Is(err, storage.ErrConflict) {
			// Taken between the check and the insert.
			slog.Debug("Family code collision", "code", code, "attempt", attempt)
			continue
		}
		if err != nil {
			slog.Error("CreateFamily failed", "user_id", userID, "error", err)
			return nil, fmt.Errorf("create family: %w", err)
		}

		slog.Info("Family created", "family_id", family.ID, "user_id", userID)
		return family, nil
	}

	slog.Error("CreateFamily ran out of codes", "user_id", userID, "attempts", s.codeAttempts)
	return nil, fmt.Errorf("%w: no free family code after %d attempts", ErrConflict, s.codeAttempts)
}

// JoinFamily adds userID to the family with the given code and makes it the
// user's active family. The code is matched case-insensitively.
func (s *Service) JoinFamily(ctx context.Context, userID, code string) (_ *models.Family, err error) {
	defer func() { observe("join_family", err) }()

	code = NormalizeCode(code)
	if code == "" {
		return nil, fmt.Errorf("%w: family code is required", ErrValidation)
	}
	if !ValidCode(code) {
		return nil, fmt.Errorf("%w: %s", ErrFamilyNotFound, code)
	}

	slog.Info("JoinFamily request received", "user_id", userID, "family_id", code)

	family, err := s.store.JoinFamily(ctx, code, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrFamilyNotFound, code)
	}
	if err != nil {
		slog.Error("JoinFamily failed", "user_id", userID, "family_id", code, "error", err)
		return nil, fmt.Errorf("join family: %w", err)
	}

	slog.Info("Family joined", "family_id", code, "user_id", userID, "members", len(family.Members))
	return family, nil
}

// LeaveFamily removes userID from its active family and clears the profile
// link. It returns the code of the family left, or "" when there was none.
func (s *Service) LeaveFamily(ctx context.Context, userID string) (_ string, err error) {
	defer func() { observe("leave_family", err) }()

	left, err := s.store.LeaveFamily(ctx, userID)
	if err != nil {
		slog.Error("LeaveFamily failed", "user_id", userID, "error", err)
		return "", fmt.Errorf("leave family: %w", err)
	}
	if left != "" {
		slog.Info("Family left", "family_id", left, "user_id", userID)
	}
	return left, nil
}

// ActiveFamily returns the code of the family userID is linked to.
// Returns ErrNoActiveFamily when there is none.
func (s *Service) ActiveFamily(ctx context.Context, userID string) (string, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && !profile.HasFamily()) {
		return "", ErrNoActiveFamily
	}
	if err != nil {
		return "", fmt.Errorf("get profile: %w", err)
	}
	return profile.FamilyID, nil
}

func observe(operation string, err error) {
	metrics.ObserveOperation(operation, metrics.Result(err, resultClasses))
}
