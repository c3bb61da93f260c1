package quest

import (
	"fmt"
	"hash/fnv"
	"sort"
	"time"
)

// PeriodStart returns local midnight of the period containing t. Weeks start
// on Monday.
func PeriodStart(t time.Time, typ Type, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	now := t.In(loc)
	switch typ {
	case TypeWeekly:
		days := int(now.Weekday()) - 1
		if days < 0 {
			days = 6
		}
		return time.Date(now.Year(), now.Month(), now.Day()-days, 0, 0, 0, 0, loc)
	case TypeMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	}
}

// NextReset returns the start of the period after the one containing t.
func NextReset(t time.Time, typ Type, loc *time.Location) time.Time {
	start := PeriodStart(t, typ, loc)
	switch typ {
	case TypeWeekly:
		return start.AddDate(0, 0, 7)
	case TypeMonthly:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// CycleKey names the rotation period containing t, e.g. "daily-2024-03-09",
// "weekly-2024-03-04" or "monthly-2024-03".
func CycleKey(t time.Time, typ Type, loc *time.Location) string {
	start := PeriodStart(t, typ, loc)
	if typ == TypeMonthly {
		return fmt.Sprintf("%s-%s", typ, start.Format("2006-01"))
	}
	return fmt.Sprintf("%s-%s", typ, start.Format("2006-01-02"))
}

// RotationMarker is the key recording that typ rotated for a community.
func RotationMarker(communityID string, typ Type) string {
	return fmt.Sprintf("rotation:%s:%s", communityID, typ)
}

// SelectTemplates picks up to perTier active templates of typ for every tier
// present. The choice depends only on the inputs, so a re-run for the same
// cycle and community selects the same templates.
func SelectTemplates(templates []*Quest, typ Type, communityID, cycle string, perTier int) []*Quest {
	if perTier <= 0 {
		perTier = 1
	}
	byTier := make(map[int][]*Quest)
	for _, t := range templates {
		if t.Type != typ || !t.Active {
			continue
		}
		byTier[t.Tier] = append(byTier[t.Tier], t)
	}

	tiers := make([]int, 0, len(byTier))
	for tier := range byTier {
		tiers = append(tiers, tier)
	}
	sort.Ints(tiers)

	var out []*Quest
	for _, tier := range tiers {
		pool := byTier[tier]
		sort.Slice(pool, func(i, j int) bool {
			hi, hj := rank(communityID, cycle, pool[i].ID), rank(communityID, cycle, pool[j].ID)
			if hi != hj {
				return hi < hj
			}
			return pool[i].ID < pool[j].ID
		})
		out = append(out, pool[:min(perTier, len(pool))]...)
	}
	return out
}

func rank(communityID, cycle, templateID string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(communityID))
	h.Write([]byte{0})
	h.Write([]byte(cycle))
	h.Write([]byte{0})
	h.Write([]byte(templateID))
	return h.Sum64()
}
