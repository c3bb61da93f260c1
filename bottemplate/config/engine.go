package config

import (
	"errors"
	"fmt"
	"time"
)

// Engine holds the tunables of the progression engine. Zero values fall back
// to the package defaults through WithDefaults.
type Engine struct {
	Timezone string `toml:"timezone"`

	MessageXP               int64 `toml:"message_xp"`
	MessageCoins            int64 `toml:"message_coins"`
	ReactionXP              int64 `toml:"reaction_xp"`
	VoiceXPPerMinute        int64 `toml:"voice_xp_per_minute"`
	MessageCooldownSeconds  int   `toml:"message_cooldown_seconds"`
	ReactionCooldownSeconds int   `toml:"reaction_cooldown_seconds"`

	StreakBonusPerDay int64 `toml:"streak_bonus_per_day"`
	StreakBonusCap    int64 `toml:"streak_bonus_cap"`

	QuestsPerTier   int `toml:"quests_per_tier"`
	ClaimGraceHours int `toml:"claim_grace_hours"`

	HistoryCap          int    `toml:"history_cap"`
	MatchTTLMinutes     int    `toml:"match_ttl_minutes"`
	ChallengeTTLMinutes int    `toml:"challenge_ttl_minutes"`
	ExpiryPolicy        string `toml:"expiry_policy"`
	LeaderboardSize     int    `toml:"leaderboard_size"`

	TradeTTLMinutes      int `toml:"trade_ttl_minutes"`
	TradeCooldownSeconds int `toml:"trade_cooldown_seconds"`

	SweepIntervalSeconds      int `toml:"sweep_interval_seconds"`
	AggregateIntervalSeconds  int `toml:"aggregate_interval_seconds"`
	VoiceFlushIntervalSeconds int `toml:"voice_flush_interval_seconds"`
}

// DefaultEngine returns the engine settings used when config.toml is silent.
func DefaultEngine() Engine {
	return Engine{}.WithDefaults()
}

// WithDefaults fills every zero field with its default.
func (e Engine) WithDefaults() Engine {
	if e.Timezone == "" {
		e.Timezone = DefaultTimezone
	}
	setInt64(&e.MessageXP, MessageXP)
	setInt64(&e.MessageCoins, MessageCoins)
	setInt64(&e.ReactionXP, ReactionXP)
	setInt64(&e.VoiceXPPerMinute, VoiceXPPerMin)
	setInt(&e.MessageCooldownSeconds, int(MessageCooldown/time.Second))
	setInt(&e.ReactionCooldownSeconds, int(ReactionCooldown/time.Second))
	setInt64(&e.StreakBonusPerDay, StreakBonusPerDay)
	setInt64(&e.StreakBonusCap, StreakBonusCap)
	setInt(&e.QuestsPerTier, QuestsPerTier)
	setInt(&e.ClaimGraceHours, int(ClaimGracePeriod/time.Hour))
	setInt(&e.HistoryCap, DefaultHistoryCap)
	setInt(&e.MatchTTLMinutes, int(MatchTTL/time.Minute))
	setInt(&e.ChallengeTTLMinutes, int(ChallengeTTL/time.Minute))
	if e.ExpiryPolicy == "" {
		e.ExpiryPolicy = DefaultExpiryPolicy
	}
	setInt(&e.LeaderboardSize, LeaderboardSize)
	setInt(&e.TradeTTLMinutes, int(TradeTTL/time.Minute))
	setInt(&e.TradeCooldownSeconds, int(TradeCooldown/time.Second))
	setInt(&e.SweepIntervalSeconds, int(DefaultSweepInterval/time.Second))
	setInt(&e.AggregateIntervalSeconds, int(AggregateInterval/time.Second))
	setInt(&e.VoiceFlushIntervalSeconds, int(VoiceFlushInterval/time.Second))
	return e
}

// Validate rejects settings the engine cannot run with.
func (e Engine) Validate() error {
	var errs []error
	if _, err := time.LoadLocation(e.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("engine.timezone: %w", err))
	}
	if e.ExpiryPolicy != "draw" && e.ExpiryPolicy != "forfeit" {
		errs = append(errs, fmt.Errorf("engine.expiry_policy: must be draw or forfeit, got %q", e.ExpiryPolicy))
	}
	for name, v := range map[string]int64{
		"message_xp":           e.MessageXP,
		"message_coins":        e.MessageCoins,
		"reaction_xp":          e.ReactionXP,
		"voice_xp_per_minute":  e.VoiceXPPerMinute,
		"streak_bonus_per_day": e.StreakBonusPerDay,
		"streak_bonus_cap":     e.StreakBonusCap,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("engine.%s: must not be negative", name))
		}
	}
	if e.HistoryCap <= 0 || e.QuestsPerTier <= 0 || e.LeaderboardSize <= 0 {
		errs = append(errs, errors.New("engine: history_cap, quests_per_tier and leaderboard_size must be positive"))
	}
	return errors.Join(errs...)
}

// Location loads the community time zone used for period boundaries.
func (e Engine) Location() *time.Location {
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (e Engine) MessageCooldown() time.Duration {
	return time.Duration(e.MessageCooldownSeconds) * time.Second
}

func (e Engine) ReactionCooldown() time.Duration {
	return time.Duration(e.ReactionCooldownSeconds) * time.Second
}

func (e Engine) ClaimGrace() time.Duration {
	return time.Duration(e.ClaimGraceHours) * time.Hour
}

func (e Engine) MatchTTL() time.Duration {
	return time.Duration(e.MatchTTLMinutes) * time.Minute
}

func (e Engine) ChallengeTTL() time.Duration {
	return time.Duration(e.ChallengeTTLMinutes) * time.Minute
}

func (e Engine) TradeTTL() time.Duration {
	return time.Duration(e.TradeTTLMinutes) * time.Minute
}

func (e Engine) TradeCooldown() time.Duration {
	return time.Duration(e.TradeCooldownSeconds) * time.Second
}

func (e Engine) SweepInterval() time.Duration {
	return time.Duration(e.SweepIntervalSeconds) * time.Second
}

func (e Engine) AggregateInterval() time.Duration {
	return time.Duration(e.AggregateIntervalSeconds) * time.Second
}

func (e Engine) VoiceFlushInterval() time.Duration {
	return time.Duration(e.VoiceFlushIntervalSeconds) * time.Second
}

func setInt(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

func setInt64(v *int64, def int64) {
	if *v == 0 {
		*v = def
	}
}
