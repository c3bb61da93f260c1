package quest

import (
	"math"
	"time"

	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
)

// Validate rejects malformed definitions before they are persisted.
func (q *Quest) Validate() error {
	if q.ID == "" {
		return apperrors.Invalid("id", "must not be empty")
	}
	if q.Title == "" {
		return apperrors.Invalid("title", "must not be empty")
	}
	if !q.Type.Valid() {
		return apperrors.Invalid("type", "unknown quest type %q", q.Type)
	}
	if len(q.Objectives) == 0 {
		return apperrors.Invalid("objectives", "at least one objective is required")
	}

	seen := make(map[string]struct{}, len(q.Objectives))
	for i, o := range q.Objectives {
		if o.ID == "" {
			return apperrors.Invalid("objectives", "objective %d has no id", i)
		}
		if _, dup := seen[o.ID]; dup {
			return apperrors.Invalid("objectives", "duplicate objective id %q", o.ID)
		}
		seen[o.ID] = struct{}{}
		if !o.Kind.Valid() {
			return apperrors.Invalid("objectives", "objective %q has unknown kind %q", o.ID, o.Kind)
		}
		if o.Target <= 0 {
			return apperrors.Invalid("objectives", "objective %q target must be positive", o.ID)
		}
	}

	if !q.AvailableUntil.IsZero() && !q.AvailableFrom.IsZero() && !q.AvailableUntil.After(q.AvailableFrom) {
		return apperrors.Invalid("available_until", "must be after available_from")
	}

	if err := q.Requirements.validate(); err != nil {
		return err
	}
	if q.Limitations.MaxCompletions < 0 || q.Limitations.CooldownHours < 0 {
		return apperrors.Invalid("limitations", "must not be negative")
	}
	if q.Rewards.XP < 0 || q.Rewards.Coins < 0 || q.Rewards.Tokens < 0 {
		return apperrors.Invalid("rewards", "must not be negative")
	}
	for _, it := range q.Rewards.Items {
		if it.ItemID == "" || it.Quantity <= 0 {
			return apperrors.Invalid("rewards", "item grants need an id and a positive quantity")
		}
	}
	if q.Rewards.Effect != nil {
		if err := q.Rewards.Effect.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (r Requirements) validate() error {
	if r.MinLevel < 0 || r.MaxLevel < 0 {
		return apperrors.Invalid("requirements", "level bounds must not be negative")
	}
	if r.MinLevel > 0 && r.MaxLevel > 0 && r.MaxLevel < r.MinLevel {
		return apperrors.Invalid("requirements", "max_level %d is below min_level %d", r.MaxLevel, r.MinLevel)
	}
	if r.Hours != nil {
		if r.Hours.Start < 0 || r.Hours.Start > 23 || r.Hours.End < 0 || r.Hours.End > 24 {
			return apperrors.Invalid("requirements", "hour window %d-%d out of range", r.Hours.Start, r.Hours.End)
		}
	}
	for _, d := range r.Weekdays {
		if d < time.Sunday || d > time.Saturday {
			return apperrors.Invalid("requirements", "weekday %d out of range", d)
		}
	}
	return nil
}

// Validate checks that exactly the payload for Kind is present and sane.
func (e SpecialEffect) Validate() error {
	set := 0
	if e.XPBoost != nil {
		set++
	}
	if e.RoleGrant != nil {
		set++
	}
	if e.Title != nil {
		set++
	}
	if set != 1 {
		return apperrors.Invalid("effect", "exactly one payload must be set, got %d", set)
	}

	switch e.Kind {
	case EffectXPBoost:
		if e.XPBoost == nil {
			return apperrors.Invalid("effect", "xp_boost payload missing")
		}
		if e.XPBoost.Multiplier <= 1 || math.IsNaN(e.XPBoost.Multiplier) || math.IsInf(e.XPBoost.Multiplier, 0) {
			return apperrors.Invalid("effect", "xp boost multiplier must be above 1")
		}
		if e.XPBoost.Duration <= 0 {
			return apperrors.Invalid("effect", "xp boost duration must be positive")
		}
	case EffectRoleGrant:
		if e.RoleGrant == nil || e.RoleGrant.RoleID == "" {
			return apperrors.Invalid("effect", "role grant needs a role id")
		}
	case EffectTitle:
		if e.Title == nil || e.Title.Title == "" {
			return apperrors.Invalid("effect", "title grant needs a title")
		}
	default:
		return apperrors.Invalid("effect", "unknown effect kind %q", e.Kind)
	}
	return nil
}
