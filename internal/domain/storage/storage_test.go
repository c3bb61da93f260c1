package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
)

func TestRetryCAS(t *testing.T) {
	tests := []struct {
		name      string
		conflicts int
		attempts  int
		wantCalls int
		wantErr   error
	}{
		{name: "first try", conflicts: 0, attempts: 3, wantCalls: 1},
		{name: "wins after conflicts", conflicts: 2, attempts: 3, wantCalls: 3},
		{name: "exhausted", conflicts: 5, attempts: 3, wantCalls: 3, wantErr: ErrRetriesExhausted},
		{name: "default attempts", conflicts: 100, attempts: 0, wantCalls: DefaultCASAttempts, wantErr: apperrors.ErrVersionConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryCAS(context.Background(), tt.attempts, func(ctx context.Context) error {
				calls++
				if calls <= tt.conflicts {
					return apperrors.ErrVersionConflict
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("RetryCAS() calls = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr == nil && err != nil {
				t.Errorf("RetryCAS() error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("RetryCAS() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryCASStopsOnOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := RetryCAS(context.Background(), 5, func(ctx context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("RetryCAS() = %v after %d calls, want boom after 1", err, calls)
	}
}

func TestRetryCASHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryCAS(ctx, 5, func(ctx context.Context) error {
		t.Fatal("attempt must not run on a cancelled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RetryCAS() = %v, want context.Canceled", err)
	}
}
