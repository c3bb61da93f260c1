// Package account holds per-user balances in a community and the pure
// mutations that change them.
package account

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ellavondegurechaff/progression/internal/domain/apperrors"
	"github.com/ellavondegurechaff/progression/internal/domain/reward"
)

// grantMemory bounds how many applied grant ids an account remembers. Grants
// are redelivered within minutes, so only recent ids need checking.
const grantMemory = 256

var ErrInsufficientFunds = errors.New("insufficient funds")

// Boost is an active XP multiplier.
type Boost struct {
	Multiplier float64   `json:"multiplier"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Account is one user's ledger in one community.
type Account struct {
	UserID      string
	CommunityID string
	XP          int64
	Coins       int64
	Tokens      int64
	Items       map[string]int64
	Level       int
	Cooldowns   map[string]time.Time
	// DailyStreak counts consecutive local days with a completed daily quest.
	DailyStreak   int
	LastStreakDay string
	Boost         *Boost
	Titles        []string
	Roles         []string
	ClanID        string
	// Grants lists recently applied grant ids, newest last.
	Grants    []string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(communityID, userID string, now time.Time) *Account {
	return &Account{
		UserID:      userID,
		CommunityID: communityID,
		Items:       map[string]int64{},
		Cooldowns:   map[string]time.Time{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Key is the storage key of an account.
func Key(communityID, userID string) string {
	return communityID + ":" + userID
}

func (a *Account) Clone() *Account {
	c := *a
	c.Items = make(map[string]int64, len(a.Items))
	for k, v := range a.Items {
		c.Items[k] = v
	}
	c.Cooldowns = make(map[string]time.Time, len(a.Cooldowns))
	for k, v := range a.Cooldowns {
		c.Cooldowns[k] = v
	}
	if a.Boost != nil {
		b := *a.Boost
		c.Boost = &b
	}
	c.Titles = slices.Clone(a.Titles)
	c.Roles = slices.Clone(a.Roles)
	c.Grants = slices.Clone(a.Grants)
	return &c
}

// HasGrant reports whether grantID was already applied.
func (a *Account) HasGrant(grantID string) bool {
	return grantID != "" && slices.Contains(a.Grants, grantID)
}

// Result is the before/after view of a ledger mutation.
type Result struct {
	Applied     bool
	LevelBefore int
	LevelAfter  int
	Balance     reward.Bundle
}

func (r Result) LeveledUp() bool {
	return r.LevelAfter > r.LevelBefore
}

// ApplyReward credits b to a. A non-empty grantID makes the credit
// idempotent: a grant already applied is reported with Applied == false.
func ApplyReward(a *Account, grantID string, b reward.Bundle, now time.Time) Result {
	res := Result{LevelBefore: a.Level, LevelAfter: a.Level}
	if a.HasGrant(grantID) {
		res.Balance = a.balance()
		return res
	}

	a.XP = satAdd(a.XP, max(0, b.XP))
	a.Coins = satAdd(a.Coins, max(0, b.Coins))
	a.Tokens = satAdd(a.Tokens, max(0, b.Tokens))
	if a.Items == nil {
		a.Items = map[string]int64{}
	}
	for _, it := range b.Items {
		if it.Quantity > 0 {
			a.Items[it.ItemID] = satAdd(a.Items[it.ItemID], it.Quantity)
		}
	}
	a.rememberGrant(grantID)
	a.Level = LevelFor(a.XP)
	a.UpdatedAt = now

	res.Applied = true
	res.LevelAfter = a.Level
	res.Balance = a.balance()
	return res
}

// Debit removes coins, tokens and items from a. It fails without changing a
// when any balance would go negative. grantID works as in ApplyReward.
func Debit(a *Account, grantID string, b reward.Bundle, now time.Time) (Result, error) {
	res := Result{LevelBefore: a.Level, LevelAfter: a.Level}
	if a.HasGrant(grantID) {
		res.Balance = a.balance()
		return res, nil
	}
	if b.XP != 0 {
		return res, apperrors.Invalid("xp", "cannot be debited")
	}
	if a.Coins < b.Coins || a.Tokens < b.Tokens {
		return res, fmt.Errorf("%w: %s has %d coins %d tokens", ErrInsufficientFunds, a.UserID, a.Coins, a.Tokens)
	}
	for _, it := range b.Items {
		if a.Items[it.ItemID] < it.Quantity {
			return res, fmt.Errorf("%w: %s has %d of %s", ErrInsufficientFunds, a.UserID, a.Items[it.ItemID], it.ItemID)
		}
	}

	a.Coins -= max(0, b.Coins)
	a.Tokens -= max(0, b.Tokens)
	for _, it := range b.Items {
		a.Items[it.ItemID] -= max(0, it.Quantity)
		if a.Items[it.ItemID] == 0 {
			delete(a.Items, it.ItemID)
		}
	}
	a.rememberGrant(grantID)
	a.UpdatedAt = now

	res.Applied = true
	res.Balance = a.balance()
	return res, nil
}

// Adjust is an admin correction. Signed deltas are applied and every balance
// is clamped at zero.
func Adjust(a *Account, delta reward.Bundle, now time.Time) Result {
	res := Result{LevelBefore: a.Level, Applied: true}
	a.XP = max(0, a.XP+delta.XP)
	a.Coins = max(0, a.Coins+delta.Coins)
	a.Tokens = max(0, a.Tokens+delta.Tokens)
	if a.Items == nil {
		a.Items = map[string]int64{}
	}
	for _, it := range delta.Items {
		n := max(0, a.Items[it.ItemID]+it.Quantity)
		if n == 0 {
			delete(a.Items, it.ItemID)
			continue
		}
		a.Items[it.ItemID] = n
	}
	a.Level = LevelFor(a.XP)
	a.UpdatedAt = now
	res.LevelAfter = a.Level
	res.Balance = a.balance()
	return res
}

// Multiplier is the XP multiplier in effect at now.
func (a *Account) Multiplier(now time.Time) float64 {
	if a.Boost == nil || !now.Before(a.Boost.ExpiresAt) || a.Boost.Multiplier <= 1 {
		return 1
	}
	return a.Boost.Multiplier
}

// GrantBoost activates an XP boost. A stronger or longer boost wins.
func (a *Account) GrantBoost(multiplier float64, d time.Duration, now time.Time) {
	expires := now.Add(d)
	if a.Boost != nil && now.Before(a.Boost.ExpiresAt) {
		multiplier = max(multiplier, a.Boost.Multiplier)
		if a.Boost.ExpiresAt.After(expires) {
			expires = a.Boost.ExpiresAt
		}
	}
	a.Boost = &Boost{Multiplier: multiplier, ExpiresAt: expires}
	a.UpdatedAt = now
}

func (a *Account) GrantTitle(title string) {
	if !slices.Contains(a.Titles, title) {
		a.Titles = append(a.Titles, title)
	}
}

func (a *Account) GrantRole(roleID string) {
	if !slices.Contains(a.Roles, roleID) {
		a.Roles = append(a.Roles, roleID)
	}
}

// StreakBonus is perDay for every streak day, capped at limit when positive.
func (a *Account) StreakBonus(perDay, limit int64) int64 {
	bonus := int64(a.DailyStreak) * perDay
	if limit > 0 && bonus > limit {
		return limit
	}
	return max(0, bonus)
}

// RecordDailyCompletion advances the daily streak for the local day key
// (YYYY-MM-DD) and its predecessor. Repeats for the same day are no-ops.
func (a *Account) RecordDailyCompletion(day, previousDay string) bool {
	switch a.LastStreakDay {
	case day:
		return false
	case previousDay:
		a.DailyStreak++
	default:
		a.DailyStreak = 1
	}
	a.LastStreakDay = day
	return true
}

// CooldownReady reports whether action may run at now and, if so, starts a
// cooldown of d.
func (a *Account) CooldownReady(action string, d time.Duration, now time.Time) bool {
	if a.Cooldowns == nil {
		a.Cooldowns = map[string]time.Time{}
	}
	if until, ok := a.Cooldowns[action]; ok && now.Before(until) {
		return false
	}
	a.Cooldowns[action] = now.Add(d)
	return true
}

func (a *Account) balance() reward.Bundle {
	b := reward.Bundle{XP: a.XP, Coins: a.Coins, Tokens: a.Tokens}
	for id, n := range a.Items {
		b.Items = append(b.Items, reward.ItemGrant{ItemID: id, Quantity: n})
	}
	slices.SortFunc(b.Items, func(x, y reward.ItemGrant) int {
		switch {
		case x.ItemID < y.ItemID:
			return -1
		case x.ItemID > y.ItemID:
			return 1
		}
		return 0
	})
	return b
}

func (a *Account) rememberGrant(grantID string) {
	if grantID == "" {
		return
	}
	a.Grants = append(a.Grants, grantID)
	if over := len(a.Grants) - grantMemory; over > 0 {
		a.Grants = slices.Clone(a.Grants[over:])
	}
}

func satAdd(a, b int64) int64 {
	const maxInt64 = 1<<63 - 1
	if a > maxInt64-b {
		return maxInt64
	}
	return a + b
}
