package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/yigit/careportal/internal/app/models"
	"github.com/yigit/careportal/internal/app/repositories/memory"
	"github.com/yigit/careportal/internal/pkg/apperrors"
)

func newGuard() (*KeyGuard, *memory.Store) {
	store := memory.New()
	return NewKeyGuard(store, store, store, zerolog.Nop()), store
}

func TestAcquireIsIdempotentForClaimant(t *testing.T) {
	ctx := context.Background()
	guard, store := newGuard()
	seedKey(t, store, "2024-0001", "BS Information Technology")

	claim := KeyClaim{StudentID: "2024-0001", Course: "bs information technology", Email: "maria@example.com", ApplicationID: "app-1"}
	first, err := guard.Acquire(ctx, claim)
	if err != nil || first != KeyGranted {
		t.Fatalf("first acquire = %s, %v", first, err)
	}
	second, err := guard.Acquire(ctx, claim)
	if err != nil || second != KeyAlreadyOwnedByClaimant {
		t.Fatalf("second acquire = %s, %v", second, err)
	}
}

func TestAcquireByOtherClaimantLeavesKeyUntouched(t *testing.T) {
	ctx := context.Background()
	guard, store := newGuard()
	seedKey(t, store, "2024-0001", "BS Information Technology")

	if _, err := guard.Acquire(ctx, KeyClaim{StudentID: "2024-0001", Course: "BS Information Technology", Email: "maria@example.com"}); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	outcome, err := guard.Acquire(ctx, KeyClaim{StudentID: "2024-0001", Course: "BS Information Technology", Email: "jose@example.com"})
	if err != nil || outcome != KeyConflictOwnedByOther {
		t.Fatalf("second claimant = %s, %v", outcome, err)
	}

	key, _ := store.GetEnrollmentKey(ctx, "2024-0001")
	if !key.IsUsed || *key.AssignedToEmail != "maria@example.com" {
		t.Fatalf("key changed: %+v", key)
	}
}

func TestAcquireOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T, s *memory.Store)
		claim  KeyClaim
		want   KeyOutcome
		wantOK bool
	}{
		{
			name:  "course mismatch",
			setup: func(t *testing.T, s *memory.Store) { seedKey(t, s, "2024-0002", "BS Computer Science") },
			claim: KeyClaim{StudentID: "2024-0002", Course: "BS Information Technology", Email: "a@example.com"},
			want:  KeyCourseMismatch,
		},
		{
			name:  "unknown student id",
			setup: func(*testing.T, *memory.Store) {},
			claim: KeyClaim{StudentID: "2024-9999", Course: "BSIT", Email: "a@example.com"},
			want:  KeyNotFound,
		},
		{
			name: "synthesized from roster",
			setup: func(_ *testing.T, s *memory.Store) {
				s.PutRosterEntry(models.RosterEntry{StudentID: "2024-0003", Course: "BS Nursing"})
			},
			claim:  KeyClaim{StudentID: "2024-0003", Course: "BS Nursing", Email: "a@example.com", ApplicationID: "app-1"},
			want:   KeyGranted,
			wantOK: true,
		},
		{
			name: "roster course mismatch",
			setup: func(_ *testing.T, s *memory.Store) {
				s.PutRosterEntry(models.RosterEntry{StudentID: "2024-0004", Course: "BS Nursing"})
			},
			claim: KeyClaim{StudentID: "2024-0004", Course: "BS Psychology", Email: "a@example.com"},
			want:  KeyCourseMismatch,
		},
		{
			name: "roster id held by another application",
			setup: func(t *testing.T, s *memory.Store) {
				s.PutRosterEntry(models.RosterEntry{StudentID: "2024-0005", Course: "BS Nursing"})
				seedApplication(t, s, "app-other", "other@example.com", "BS Nursing", models.ApplicationPassed)
				if err := s.MarkApplicationConsumed(context.Background(), "app-other", "2024-0005"); err != nil {
					t.Fatalf("mark: %v", err)
				}
			},
			claim: KeyClaim{StudentID: "2024-0005", Course: "BS Nursing", Email: "a@example.com", ApplicationID: "app-1"},
			want:  KeyConflictOwnedByOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard, store := newGuard()
			tt.setup(t, store)

			got, err := guard.Acquire(context.Background(), tt.claim)
			if err != nil {
				t.Fatalf("Acquire: %v", err)
			}
			if got != tt.want {
				t.Fatalf("outcome = %s, want %s", got, tt.want)
			}
			if got.Succeeded() != tt.wantOK {
				t.Fatalf("Succeeded = %v", got.Succeeded())
			}
		})
	}
}

func TestOutcomeErrWrapsSentinel(t *testing.T) {
	tests := []struct {
		outcome KeyOutcome
		want    error
	}{
		{KeyConflictOwnedByOther, apperrors.ErrConflictOwnedByOther},
		{KeyCourseMismatch, apperrors.ErrCourseMismatch},
		{KeyNotFound, apperrors.ErrKeyNotFound},
	}
	for _, tt := range tests {
		err := tt.outcome.Err("2024-0001")
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v", tt.outcome, err)
		}
		if apperrors.CodeOf(err) != string(tt.outcome) {
			t.Errorf("%s: code = %q", tt.outcome, apperrors.CodeOf(err))
		}
	}
	if KeyGranted.Err("x") != nil {
		t.Fatalf("granted should have no error")
	}
}
