package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/careportal/internal/app/catalog"
	"github.com/yigit/careportal/internal/app/models"
	"github.com/yigit/careportal/internal/pkg/apperrors"
)

// KeyOutcome is the result of an enrollment key acquisition.
type KeyOutcome string

const (
	KeyGranted                KeyOutcome = "Granted"
	KeyAlreadyOwnedByClaimant KeyOutcome = "AlreadyOwnedByClaimant"
	KeyConflictOwnedByOther   KeyOutcome = "ConflictOwnedByOther"
	KeyCourseMismatch         KeyOutcome = "CourseMismatch"
	KeyNotFound               KeyOutcome = "NotFound"
)

// Succeeded is true for Granted and AlreadyOwnedByClaimant.
func (o KeyOutcome) Succeeded() bool {
	return o == KeyGranted || o == KeyAlreadyOwnedByClaimant
}

// Err converts a failed outcome into the matching application error.
func (o KeyOutcome) Err(studentID string) error {
	switch o {
	case KeyConflictOwnedByOther:
		return apperrors.NewCustomError(apperrors.ErrConflictOwnedByOther,
			fmt.Sprintf("student ID %s is already claimed by another account", studentID)).WithCode(string(o))
	case KeyCourseMismatch:
		return apperrors.NewCustomError(apperrors.ErrCourseMismatch,
			fmt.Sprintf("the course does not match the enrollment record for student ID %s", studentID)).WithCode(string(o))
	case KeyNotFound:
		return apperrors.NewCustomError(apperrors.ErrKeyNotFound,
			fmt.Sprintf("no enrollment key or roster record found for student ID %s", studentID)).WithCode(string(o))
	}
	return nil
}

// KeyClaim identifies who is claiming which key.
type KeyClaim struct {
	StudentID string
	Course    string
	Email     string
	// ApplicationID is the claimant's own Application. Any other Application
	// already carrying StudentID blocks key synthesis.
	ApplicationID string
}

// KeyGuard makes sure an enrollment key is consumed at most once and that
// the original claimant can safely repeat the acquisition.
type KeyGuard struct {
	keys         EnrollmentKeyStore
	roster       RosterStore
	applications ApplicationStore
	logger       zerolog.Logger
}

// NewKeyGuard creates a new KeyGuard
func NewKeyGuard(keys EnrollmentKeyStore, roster RosterStore, applications ApplicationStore, logger zerolog.Logger) *KeyGuard {
	return &KeyGuard{
		keys:         keys,
		roster:       roster,
		applications: applications,
		logger:       logger,
	}
}

// Acquire claims the enrollment key for claim.StudentID. A non-nil error
// means the stores failed; business rejections come back as outcomes.
func (g *KeyGuard) Acquire(ctx context.Context, claim KeyClaim) (KeyOutcome, error) {
	log := g.logger.With().Str("studentID", claim.StudentID).Str("email", claim.Email).Logger()

	key, outcome, err := g.findOrSynthesize(ctx, claim)
	if err != nil || outcome != "" {
		if outcome != "" {
			log.Info().Str("outcome", string(outcome)).Msg("Enrollment key rejected")
		}
		return outcome, err
	}

	if key.Course != "" && !catalog.SameCourse(key.Course, claim.Course) {
		log.Info().Str("keyCourse", key.Course).Str("course", claim.Course).Msg("Enrollment key course mismatch")
		return KeyCourseMismatch, nil
	}

	if !key.IsUsed {
		err := g.keys.ClaimEnrollmentKey(ctx, claim.StudentID, claim.Email)
		switch {
		case err == nil:
			log.Info().Msg("Enrollment key granted")
			return KeyGranted, nil
		case !errors.Is(err, apperrors.ErrWriteConflict):
			return "", fmt.Errorf("claim enrollment key: %w", err)
		}
		// Lost the race; decide against whoever won.
		key, err = g.keys.GetEnrollmentKey(ctx, claim.StudentID)
		if err != nil {
			return "", fmt.Errorf("re-read enrollment key: %w", err)
		}
		if !key.IsUsed {
			return "", apperrors.NewWriteConflictError("enrollment key changed during activation, retry")
		}
	}

	if key.AssignedToEmail != nil && models.SameEmail(*key.AssignedToEmail, claim.Email) {
		log.Info().Msg("Enrollment key already owned by claimant")
		return KeyAlreadyOwnedByClaimant, nil
	}
	log.Info().Msg("Enrollment key owned by another account")
	return KeyConflictOwnedByOther, nil
}

// findOrSynthesize loads the key, falling back to the roster to create an
// unused one. A non-empty outcome ends acquisition.
func (g *KeyGuard) findOrSynthesize(ctx context.Context, claim KeyClaim) (*models.EnrollmentKey, KeyOutcome, error) {
	key, err := g.keys.GetEnrollmentKey(ctx, claim.StudentID)
	if err == nil {
		return key, "", nil
	}
	if !errors.Is(err, apperrors.ErrResourceNotFound) {
		return nil, "", fmt.Errorf("get enrollment key: %w", err)
	}

	entry, err := g.roster.GetRosterEntry(ctx, claim.StudentID)
	if errors.Is(err, apperrors.ErrResourceNotFound) {
		return nil, KeyNotFound, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("get roster entry: %w", err)
	}

	claimed, err := g.applications.StudentIDClaimedByOther(ctx, claim.StudentID, claim.ApplicationID)
	if err != nil {
		return nil, "", fmt.Errorf("check student id claims: %w", err)
	}
	if claimed {
		return nil, KeyConflictOwnedByOther, nil
	}
	if !catalog.SameCourse(entry.Course, claim.Course) {
		return nil, KeyCourseMismatch, nil
	}

	key = &models.EnrollmentKey{StudentID: claim.StudentID, Course: entry.Course}
	err = g.keys.CreateEnrollmentKey(ctx, key)
	if errors.Is(err, apperrors.ErrResourceAlreadyExists) {
		// Synthesized concurrently; use the stored one.
		key, err = g.keys.GetEnrollmentKey(ctx, claim.StudentID)
	}
	if err != nil {
		return nil, "", fmt.Errorf("synthesize enrollment key: %w", err)
	}
	g.logger.Info().Str("studentID", claim.StudentID).Msg("Enrollment key synthesized from roster")
	return key, "", nil
}

// Release undoes a claim still held by email. Used to compensate when the
// profile write after a Granted acquisition fails. Stores refuse the release
// while a Student with that id exists.
func (g *KeyGuard) Release(ctx context.Context, studentID, email string) error {
	if err := g.keys.ReleaseEnrollmentKey(ctx, studentID, email); err != nil {
		return fmt.Errorf("release enrollment key: %w", err)
	}
	g.logger.Warn().Str("studentID", studentID).Str("email", email).Msg("Enrollment key released")
	return nil
}
