package config

import "time"

// Application-wide constants organized by domain

// UI Constants
const (
	// Colors
	ErrorColor   = 0xFF0000
	SuccessColor = 0x00FF00
	InfoColor    = 0x0099FF
	WarningColor = 0xFFAA00

	// Discord UI Colors
	EmbedDefaultColor = 0x2B2D31

	// Rank tier colors
	TierBronzeColor   = 0xCD7F32
	TierSilverColor   = 0xC0C0C0
	TierGoldColor     = 0xFFD700
	TierPlatinumColor = 0x00CED1
	TierDiamondColor  = 0xB9F2FF
	TierMasterColor   = 0x9B59B6
	TierTopColor      = 0xE74C3C

	ProgressBarLength = 10
)

// Database and Performance Constants
const (
	// Timeouts
	DefaultQueryTimeout = 30 * time.Second
	BatchQueryTimeout   = 30 * time.Second
	HandlerTimeout      = 10 * time.Second
	SweepTimeout        = 2 * time.Minute
	SnapshotTimeout     = 30 * time.Second
	StartupTimeout      = 10 * time.Minute
	ShutdownTimeout     = 10 * time.Second

	// Slow handler threshold for the listener logger
	SlowHandlerThreshold = 2 * time.Second
	SlowQueryThreshold   = 500 * time.Millisecond

	// Batch processing
	SweepBatchSize       = 200
	MaxConcurrentBatches = 5
)

// Cache settings
const (
	CatalogCacheSize = 512
	CatalogCacheTTL  = 5 * time.Minute
	FuzzyMaxResults  = 10

	CooldownCleanupInterval = 5 * time.Minute
)

// Progression Constants
const (
	// Passive rewards
	MessageXP        = 5
	MessageCoins     = 1
	ReactionXP       = 1
	VoiceXPPerMin    = 2
	MessageCooldown  = 60 * time.Second
	ReactionCooldown = 30 * time.Second

	// Daily quest streak
	StreakBonusPerDay = 5
	StreakBonusCap    = 50

	// Quest rotation
	DefaultTimezone      = "UTC"
	QuestsPerTier        = 1
	ClaimGracePeriod     = 24 * time.Hour
	DefaultSweepInterval = time.Minute
	AggregateInterval    = 10 * time.Minute
	VoiceFlushInterval   = time.Minute
)

// Ranking Constants
const (
	DefaultHistoryCap   = 50
	MatchTTL            = 30 * time.Minute
	ChallengeTTL        = 10 * time.Minute
	DefaultExpiryPolicy = "draw"
	LeaderboardSize     = 25
)

// Trade Constants
const (
	TradeTTL      = 15 * time.Minute
	TradeCooldown = 30 * time.Second
	// SettleGrace is how long a settlement may stay reserved before the sweep
	// finishes it.
	SettleGrace = time.Minute
)
