package quest

import (
	"fmt"
	"time"

	"github.com/ellavondegurechaff/progression/internal/domain/reward"
)

type Type string

const (
	TypeDaily    Type = "daily"
	TypeWeekly   Type = "weekly"
	TypeMonthly  Type = "monthly"
	TypeSeasonal Type = "seasonal"
	TypeEvent    Type = "event"
	TypeChain    Type = "chain"
)

// Rotating reports whether quests of this type are generated by the reset sweep.
func (t Type) Rotating() bool {
	return t == TypeDaily || t == TypeWeekly || t == TypeMonthly
}

func (t Type) Valid() bool {
	switch t {
	case TypeDaily, TypeWeekly, TypeMonthly, TypeSeasonal, TypeEvent, TypeChain:
		return true
	}
	return false
}

// ObjectiveKind is the closed vocabulary of countable activity.
type ObjectiveKind string

const (
	KindMessageSent    ObjectiveKind = "message_sent"
	KindVoiceMinutes   ObjectiveKind = "voice_minutes"
	KindReactionGiven  ObjectiveKind = "reaction_given"
	KindCurrencyEarned ObjectiveKind = "currency_earned"
	KindDuelPlayed     ObjectiveKind = "duel_played"
	KindDuelWon        ObjectiveKind = "duel_won"
	KindTradeCompleted ObjectiveKind = "trade_completed"
	KindCommandUsed    ObjectiveKind = "command_used"
	KindQuestCompleted ObjectiveKind = "quest_completed"
)

var objectiveUnits = map[ObjectiveKind]string{
	KindMessageSent:    "messages",
	KindVoiceMinutes:   "minutes",
	KindReactionGiven:  "reactions",
	KindCurrencyEarned: "coins",
	KindDuelPlayed:     "duels",
	KindDuelWon:        "wins",
	KindTradeCompleted: "trades",
	KindCommandUsed:    "commands",
	KindQuestCompleted: "quests",
}

func (k ObjectiveKind) Valid() bool {
	_, ok := objectiveUnits[k]
	return ok
}

// Unit is the display unit of the counter.
func (k ObjectiveKind) Unit() string {
	return objectiveUnits[k]
}

// Kinds lists the vocabulary in a stable order.
func Kinds() []ObjectiveKind {
	return []ObjectiveKind{
		KindMessageSent, KindVoiceMinutes, KindReactionGiven, KindCurrencyEarned,
		KindDuelPlayed, KindDuelWon, KindTradeCompleted, KindCommandUsed, KindQuestCompleted,
	}
}

// Objective is one countable sub-goal. Scope optionally narrows matching
// activity (a channel id, a duel mode); empty matches any.
type Objective struct {
	ID     string        `json:"id"`
	Kind   ObjectiveKind `json:"kind"`
	Target int64         `json:"target"`
	Scope  string        `json:"scope,omitempty"`
}

func (o Objective) Matches(kind ObjectiveKind, scope string) bool {
	return o.Kind == kind && (o.Scope == "" || o.Scope == scope)
}

type EffectKind string

const (
	EffectXPBoost   EffectKind = "xp_boost"
	EffectRoleGrant EffectKind = "role_grant"
	EffectTitle     EffectKind = "title"
)

type XPBoost struct {
	Multiplier float64       `json:"multiplier"`
	Duration   time.Duration `json:"duration"`
}

type RoleGrant struct {
	RoleID string `json:"role_id"`
}

type TitleGrant struct {
	Title string `json:"title"`
}

// SpecialEffect is a variant: exactly the payload matching Kind is set.
// Build it with NewXPBoostEffect, NewRoleGrantEffect or NewTitleEffect.
type SpecialEffect struct {
	Kind      EffectKind  `json:"kind"`
	XPBoost   *XPBoost    `json:"xp_boost,omitempty"`
	RoleGrant *RoleGrant  `json:"role_grant,omitempty"`
	Title     *TitleGrant `json:"title,omitempty"`
}

func NewXPBoostEffect(multiplier float64, d time.Duration) (SpecialEffect, error) {
	e := SpecialEffect{Kind: EffectXPBoost, XPBoost: &XPBoost{Multiplier: multiplier, Duration: d}}
	return e, e.Validate()
}

func NewRoleGrantEffect(roleID string) (SpecialEffect, error) {
	e := SpecialEffect{Kind: EffectRoleGrant, RoleGrant: &RoleGrant{RoleID: roleID}}
	return e, e.Validate()
}

func NewTitleEffect(title string) (SpecialEffect, error) {
	e := SpecialEffect{Kind: EffectTitle, Title: &TitleGrant{Title: title}}
	return e, e.Validate()
}

// Rewards is what a quest pays on claim before difficulty, multiplier and streak.
type Rewards struct {
	reward.Bundle
	Effect *SpecialEffect `json:"effect,omitempty"`
}

// HourWindow restricts progress to local hours [Start, End). Start > End wraps midnight.
type HourWindow struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (w HourWindow) Contains(hour int) bool {
	if w.Start == w.End {
		return true
	}
	if w.Start < w.End {
		return hour >= w.Start && hour < w.End
	}
	return hour >= w.Start || hour < w.End
}

type Requirements struct {
	MinLevel      int            `json:"min_level,omitempty"`
	MaxLevel      int            `json:"max_level,omitempty"`
	Prerequisites []string       `json:"prerequisites,omitempty"`
	Hours         *HourWindow    `json:"hours,omitempty"`
	Weekdays      []time.Weekday `json:"weekdays,omitempty"`
}

type Limitations struct {
	Repeatable     bool `json:"repeatable"`
	MaxCompletions int  `json:"max_completions,omitempty"`
	CooldownHours  int  `json:"cooldown_hours,omitempty"`
}

// Quest is a community quest instance. Rotated instances carry the template
// they were generated from and the cycle key of their rotation.
type Quest struct {
	ID             string
	CommunityID    string
	TemplateID     string
	Cycle          string
	Title          string
	Description    string
	Type           Type
	Tier           int
	Difficulty     reward.Difficulty
	Objectives     []Objective
	Rewards        Rewards
	Requirements   Requirements
	Limitations    Limitations
	AvailableFrom  time.Time
	AvailableUntil time.Time
	Active         bool
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Objective returns the objective with id.
func (q *Quest) Objective(id string) (Objective, bool) {
	for _, o := range q.Objectives {
		if o.ID == id {
			return o, true
		}
	}
	return Objective{}, false
}

// Expired reports whether the quest's window has closed at now.
func (q *Quest) Expired(now time.Time) bool {
	return !q.AvailableUntil.IsZero() && !now.Before(q.AvailableUntil)
}

// Open reports whether the quest accepts progress at now.
func (q *Quest) Open(now time.Time) bool {
	if !q.Active || q.Expired(now) {
		return false
	}
	return q.AvailableFrom.IsZero() || !now.Before(q.AvailableFrom)
}

// InstanceID is the deterministic id of a template's instance for one cycle
// in one community, so re-running a rotation never duplicates quests.
func InstanceID(communityID, templateID, cycle string) string {
	return fmt.Sprintf("%s:%s@%s", communityID, templateID, cycle)
}

// Instantiate builds the community instance of tpl for the cycle [from, until).
func Instantiate(tpl *Quest, communityID, cycle string, from, until time.Time) *Quest {
	q := tpl.Clone()
	q.ID = InstanceID(communityID, tpl.TemplateKey(), cycle)
	q.CommunityID = communityID
	q.TemplateID = tpl.TemplateKey()
	q.Cycle = cycle
	q.AvailableFrom = from
	q.AvailableUntil = until
	q.Active = true
	q.Version = 0
	return q
}

// Clone returns a deep copy.
func (q *Quest) Clone() *Quest {
	c := *q
	c.Objectives = append([]Objective(nil), q.Objectives...)
	if q.Rewards.Items != nil {
		c.Rewards.Items = append([]reward.ItemGrant(nil), q.Rewards.Items...)
	}
	if q.Rewards.Effect != nil {
		e := *q.Rewards.Effect
		c.Rewards.Effect = &e
	}
	c.Requirements.Prerequisites = append([]string(nil), q.Requirements.Prerequisites...)
	c.Requirements.Weekdays = append([]time.Weekday(nil), q.Requirements.Weekdays...)
	if q.Requirements.Hours != nil {
		h := *q.Requirements.Hours
		c.Requirements.Hours = &h
	}
	return &c
}

// TemplateKey is the template id for templates and instances alike.
func (q *Quest) TemplateKey() string {
	if q.TemplateID != "" {
		return q.TemplateID
	}
	return q.ID
}
