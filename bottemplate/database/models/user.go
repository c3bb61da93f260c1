package models

import (
	"time"

	"github.com/ellavondegurechaff/progression/internal/domain/account"
	"github.com/uptrace/bun"
)

// User is a member's account in one community.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	CommunityID string `bun:"community_id,pk"`
	UserID      string `bun:"user_id,pk"`

	// Balances
	XP     int64            `bun:"xp,notnull,default:0"`
	Coins  int64            `bun:"coins,notnull,default:0"`
	Tokens int64            `bun:"tokens,notnull,default:0"`
	Items  map[string]int64 `bun:"items,type:jsonb"`
	Level  int              `bun:"level,notnull,default:0"`

	Cooldowns     map[string]time.Time `bun:"cooldowns,type:jsonb"`
	DailyStreak   int                  `bun:"daily_streak,notnull,default:0"`
	LastStreakDay string               `bun:"last_streak_day,notnull,default:''"`
	Boost         *account.Boost       `bun:"boost,type:jsonb"`
	Titles        []string             `bun:"titles,type:jsonb"`
	Roles         []string             `bun:"roles,type:jsonb"`
	ClanID        string               `bun:"clan_id,notnull,default:''"`

	// Recent grant ids, newest last
	Grants []string `bun:"grants,type:jsonb"`

	Version   int64     `bun:"version,notnull,default:1"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func NewUser(a *account.Account) *User {
	return &User{
		CommunityID:   a.CommunityID,
		UserID:        a.UserID,
		XP:            a.XP,
		Coins:         a.Coins,
		Tokens:        a.Tokens,
		Items:         a.Items,
		Level:         a.Level,
		Cooldowns:     a.Cooldowns,
		DailyStreak:   a.DailyStreak,
		LastStreakDay: a.LastStreakDay,
		Boost:         a.Boost,
		Titles:        a.Titles,
		Roles:         a.Roles,
		ClanID:        a.ClanID,
		Grants:        a.Grants,
		Version:       a.Version,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func (u *User) Domain() *account.Account {
	a := &account.Account{
		UserID:        u.UserID,
		CommunityID:   u.CommunityID,
		XP:            u.XP,
		Coins:         u.Coins,
		Tokens:        u.Tokens,
		Items:         u.Items,
		Level:         u.Level,
		Cooldowns:     u.Cooldowns,
		DailyStreak:   u.DailyStreak,
		LastStreakDay: u.LastStreakDay,
		Boost:         u.Boost,
		Titles:        u.Titles,
		Roles:         u.Roles,
		ClanID:        u.ClanID,
		Grants:        u.Grants,
		Version:       u.Version,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	if a.Items == nil {
		a.Items = map[string]int64{}
	}
	if a.Cooldowns == nil {
		a.Cooldowns = map[string]time.Time{}
	}
	return a
}
