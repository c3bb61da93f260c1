// Package trade records exchanges between two users. Accepting reserves a
// pending record as settling before any funds move; a record is immutable
// once it reaches a terminal status.
package trade

import (
	"time"

	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/ellavondegurechaff/progression/internal/domain/reward"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusSettling  Status = "settling"
	StatusAccepted  Status = "accepted"
	StatusDeclined  Status = "declined"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

func (s Status) Terminal() bool {
	return s != StatusPending && s != StatusSettling
}

// Record is one proposed exchange. Offer moves from the offerer to the
// target, Request from the target to the offerer.
type Record struct {
	ID          string
	CommunityID string
	OffererID   string
	TargetID    string
	Offer       reward.Bundle
	Request     reward.Bundle
	Status      Status
	CreatedAt   time.Time
	ExpiresAt   time.Time
	SettlingAt  *time.Time
	ResolvedAt  *time.Time
	Version     int64
}

// Validate rejects malformed proposals.
func (r *Record) Validate() error {
	if r.OffererID == "" || r.TargetID == "" {
		return apperrors.Invalid("participants", "both sides are required")
	}
	if r.OffererID == r.TargetID {
		return apperrors.Invalid("participants", "cannot trade with yourself")
	}
	for _, b := range []reward.Bundle{r.Offer, r.Request} {
		if b.XP != 0 {
			return apperrors.Invalid("xp", "is not tradable")
		}
		if b.Coins < 0 || b.Tokens < 0 {
			return apperrors.Invalid("amount", "must not be negative")
		}
		for _, it := range b.Items {
			if it.ItemID == "" || it.Quantity <= 0 {
				return apperrors.Invalid("items", "need an id and a positive quantity")
			}
		}
	}
	if r.Offer.IsZero() && r.Request.IsZero() {
		return apperrors.Invalid("trade", "nothing to exchange")
	}
	return nil
}

// Resolve moves a pending record to declined, expired or cancelled.
func (r *Record) Resolve(to Status, now time.Time) error {
	if r.Status != StatusPending || to == StatusPending || to == StatusSettling || to == StatusAccepted {
		return apperrors.Conflict("trade "+r.ID, string(r.Status), string(to))
	}
	r.Status = to
	r.ResolvedAt = &now
	return nil
}

// Reserve claims a pending record for settlement. Once settling, the record
// can no longer be declined, cancelled or expired.
func (r *Record) Reserve(now time.Time) error {
	if r.Status != StatusPending {
		return apperrors.Conflict("trade "+r.ID, string(r.Status), string(StatusSettling))
	}
	r.Status = StatusSettling
	r.SettlingAt = &now
	return nil
}

// Release hands a settling record back to pending when nothing moved.
func (r *Record) Release() error {
	if r.Status != StatusSettling {
		return apperrors.Conflict("trade "+r.ID, string(r.Status), string(StatusPending))
	}
	r.Status = StatusPending
	r.SettlingAt = nil
	return nil
}

// Settle finishes a settling record as accepted or declined.
func (r *Record) Settle(to Status, now time.Time) error {
	if r.Status != StatusSettling || (to != StatusAccepted && to != StatusDeclined) {
		return apperrors.Conflict("trade "+r.ID, string(r.Status), string(to))
	}
	r.Status = to
	r.ResolvedAt = &now
	return nil
}

// Stale reports whether a pending record passed its expiry.
func (r *Record) Stale(now time.Time) bool {
	return r.Status == StatusPending && !now.Before(r.ExpiresAt)
}

// GrantID names one leg of the settlement so retries never move funds twice.
func GrantID(tradeID, leg string) string {
	return "trade:" + tradeID + ":" + leg
}
