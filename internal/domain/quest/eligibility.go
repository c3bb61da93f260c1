package quest

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrNotEligible is returned when a user may not start a quest.
var ErrNotEligible = errors.New("not eligible")

// History summarises a user's finished runs of one template.
type History struct {
	Completions     int
	LastCompletedAt time.Time
}

// Eligibility is the user state a start decision depends on.
type Eligibility struct {
	Level int
	// Completed is keyed by template id.
	Completed map[string]History
	// Open marks what the user already has an unfinished record for, keyed by
	// OpenKey.
	Open map[string]bool
}

// OpenKey is the key an unfinished record of q blocks. Rotating quests block
// only their own cycle's instance; everything else blocks the template.
func (q *Quest) OpenKey() string {
	if q.Type.Rotating() {
		return q.ID
	}
	return q.TemplateKey()
}

func (p *Progress) openKey() string {
	if p.QuestType.Rotating() {
		return p.QuestID
	}
	return p.TemplateID
}

// CheckEligibility decides whether a user described by e may start q at now.
func CheckEligibility(q *Quest, e Eligibility, now time.Time) error {
	if !q.Open(now) {
		return fmt.Errorf("%w: quest %s is not open", ErrNotEligible, q.ID)
	}
	r := q.Requirements
	if r.MinLevel > 0 && e.Level < r.MinLevel {
		return fmt.Errorf("%w: level %d below %d", ErrNotEligible, e.Level, r.MinLevel)
	}
	if r.MaxLevel > 0 && e.Level > r.MaxLevel {
		return fmt.Errorf("%w: level %d above %d", ErrNotEligible, e.Level, r.MaxLevel)
	}
	for _, pre := range r.Prerequisites {
		if e.Completed[pre].Completions == 0 {
			return fmt.Errorf("%w: prerequisite %s not completed", ErrNotEligible, pre)
		}
	}

	if open := q.OpenKey(); e.Open[open] {
		return fmt.Errorf("%w: %s already in progress", ErrNotEligible, open)
	}

	key := q.TemplateKey()

	h := e.Completed[key]
	// Rotating quests are fresh instances each cycle, so only the per-template
	// limits below apply across cycles.
	if h.Completions > 0 && !q.Limitations.Repeatable && !q.Type.Rotating() {
		return fmt.Errorf("%w: %s is not repeatable", ErrNotEligible, key)
	}
	if limit := q.Limitations.MaxCompletions; limit > 0 && h.Completions >= limit {
		return fmt.Errorf("%w: %s completed %d of %d times", ErrNotEligible, key, h.Completions, limit)
	}
	if cd := q.Limitations.CooldownHours; cd > 0 && !h.LastCompletedAt.IsZero() {
		if ready := h.LastCompletedAt.Add(time.Duration(cd) * time.Hour); now.Before(ready) {
			return fmt.Errorf("%w: %s on cooldown until %s", ErrNotEligible, key, ready.Format(time.RFC3339))
		}
	}
	return nil
}

// InWindow reports whether activity at t counts toward q, given the
// community's local time zone.
func (q *Quest) InWindow(t time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	if w := q.Requirements.Hours; w != nil && !w.Contains(local.Hour()) {
		return false
	}
	if days := q.Requirements.Weekdays; len(days) > 0 && !slices.Contains(days, local.Weekday()) {
		return false
	}
	return true
}

// BuildEligibility folds a user's progress records into an Eligibility.
func BuildEligibility(level int, records []*Progress) Eligibility {
	e := Eligibility{
		Level:     level,
		Completed: make(map[string]History),
		Open:      make(map[string]bool),
	}
	for _, p := range records {
		switch p.Status {
		case StatusActive:
			e.Open[p.openKey()] = true
		case StatusCompleted, StatusClaimed:
			h := e.Completed[p.TemplateID]
			h.Completions++
			if p.CompletedAt != nil && p.CompletedAt.After(h.LastCompletedAt) {
				h.LastCompletedAt = *p.CompletedAt
			}
			e.Completed[p.TemplateID] = h
			if p.Status == StatusCompleted {
				e.Open[p.openKey()] = true
			}
		}
	}
	return e
}
