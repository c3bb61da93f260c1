package utils

import (
	"fmt"
	"strings"

	"github.com/ellavondegurechaff/progression/bottemplate/config"
	"github.com/ellavondegurechaff/progression/internal/domain/rating"
)

// TierColor is the embed color of a ladder tier.
func TierColor(t rating.Tier) int {
	switch t {
	case rating.Bronze:
		return config.TierBronzeColor
	case rating.Silver:
		return config.TierSilverColor
	case rating.Gold:
		return config.TierGoldColor
	case rating.Platinum:
		return config.TierPlatinumColor
	case rating.Diamond:
		return config.TierDiamondColor
	case rating.Master:
		return config.TierMasterColor
	case rating.Grandmaster, rating.Challenger:
		return config.TierTopColor
	default:
		return config.EmbedDefaultColor
	}
}

func TierEmoji(t rating.Tier) string {
	switch t {
	case rating.Bronze:
		return "🥉"
	case rating.Silver:
		return "🥈"
	case rating.Gold:
		return "🥇"
	case rating.Platinum, rating.Diamond:
		return "💎"
	default:
		return "👑"
	}
}

// FormatTier renders "Gold 3".
func FormatTier(t rating.Tier, division int) string {
	return fmt.Sprintf("%s %d", TitleCase(string(t)), division)
}

func TitleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
