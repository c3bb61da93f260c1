package reward

import "math"

// Bundle is a payout in the three currencies plus optional items.
type Bundle struct {
	XP     int64       `json:"xp"`
	Coins  int64       `json:"coins"`
	Tokens int64       `json:"tokens"`
	Items  []ItemGrant `json:"items,omitempty"`
}

type ItemGrant struct {
	ItemID   string `json:"item_id"`
	Quantity int64  `json:"quantity"`
}

// IsZero reports whether the bundle pays nothing at all.
func (b Bundle) IsZero() bool {
	return b.XP == 0 && b.Coins == 0 && b.Tokens == 0 && len(b.Items) == 0
}

// Add sums two bundles. Items are concatenated.
func (b Bundle) Add(o Bundle) Bundle {
	items := make([]ItemGrant, 0, len(b.Items)+len(o.Items))
	items = append(items, b.Items...)
	items = append(items, o.Items...)
	if len(items) == 0 {
		items = nil
	}
	return Bundle{
		XP:     b.XP + o.XP,
		Coins:  b.Coins + o.Coins,
		Tokens: b.Tokens + o.Tokens,
		Items:  items,
	}
}

// Difficulty labels a quest's difficulty tier.
type Difficulty string

const (
	DifficultyTutorial  Difficulty = "tutorial"
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyHard      Difficulty = "hard"
	DifficultyEpic      Difficulty = "epic"
	DifficultyLegendary Difficulty = "legendary"
)

var difficultyMultipliers = map[Difficulty]float64{
	DifficultyTutorial:  0.5,
	DifficultyEasy:      1.0,
	DifficultyMedium:    1.5,
	DifficultyHard:      2.0,
	DifficultyEpic:      3.0,
	DifficultyLegendary: 5.0,
}

// DifficultyMultiplier returns the fixed multiplier for tier; unknown tiers are 1.0.
func DifficultyMultiplier(tier Difficulty) float64 {
	if m, ok := difficultyMultipliers[tier]; ok {
		return m
	}
	return 1.0
}

// ComputeReward applies floor(base*multiplier) + streakBonus to each currency
// independently. Results are never negative.
func ComputeReward(base Bundle, multiplier float64, streakBonus int64) Bundle {
	if math.IsNaN(multiplier) || multiplier < 0 {
		multiplier = 0
	}
	if streakBonus < 0 {
		streakBonus = 0
	}
	return Bundle{
		XP:     satAdd(scale(base.XP, multiplier), streakBonus),
		Coins:  satAdd(scale(base.Coins, multiplier), streakBonus),
		Tokens: satAdd(scale(base.Tokens, multiplier), streakBonus),
		Items:  cloneItems(base.Items),
	}
}

// ComputeDifficultyAdjustedReward scales base by the difficulty table.
func ComputeDifficultyAdjustedReward(base Bundle, tier Difficulty) Bundle {
	return ComputeReward(base, DifficultyMultiplier(tier), 0)
}

func scale(amount int64, multiplier float64) int64 {
	if amount <= 0 {
		return 0
	}
	v := math.Floor(float64(amount) * multiplier)
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

// satAdd adds two non-negative amounts, capping at MaxInt64.
func satAdd(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

func cloneItems(items []ItemGrant) []ItemGrant {
	if len(items) == 0 {
		return nil
	}
	out := make([]ItemGrant, 0, len(items))
	for _, it := range items {
		if it.Quantity > 0 && it.ItemID != "" {
			out = append(out, it)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
