package utils

import (
	"fmt"
	"testing"
	"time"

	"github.com/ellavondegurechaff/progression/bottemplate/services"
	"github.com/ellavondegurechaff/progression/internal/domain/account"
	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{-1234567, "-1,234,567"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		pct  int
		want string
	}{
		{0, "░░░░░"},
		{40, "██░░░"},
		{100, "█████"},
		{250, "█████"},
		{-5, "░░░░░"},
	}
	for _, tt := range tests {
		if got := ProgressBar(tt.pct, 5); got != tt.want {
			t.Errorf("ProgressBar(%d) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(26*time.Hour + 5*time.Minute); got != "1d 2h 5m" {
		t.Errorf("got %q", got)
	}
	if got := FormatDuration(90 * time.Minute); got != "1h 30m" {
		t.Errorf("got %q", got)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"not found", apperrors.NotFound("quest", "q1"), NotFoundError},
		{"validation", apperrors.Invalid("amount", "must be positive"), UserError},
		{"funds", fmt.Errorf("debit: %w", account.ErrInsufficientFunds), BusinessLogicError},
		{"cooldown", services.ErrTradeCooldown, BusinessLogicError},
		{"already claimed", apperrors.ErrAlreadyClaimed, BusinessLogicError},
		{"other", fmt.Errorf("dial tcp: refused"), SystemError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := UserMessage("claim", apperrors.Invalid("quest", "is closed")); got != "Could not claim: quest is closed." {
		t.Errorf("UserMessage() = %q", got)
	}
}
