package models

import (
	"time"

	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/domain/reward"
	"github.com/uptrace/bun"
)

// QuestColumns is shared by templates and community instances.
type QuestColumns struct {
	ID             string             `bun:"id,pk"`
	CommunityID    string             `bun:"community_id,notnull,default:''"`
	TemplateID     string             `bun:"template_id,notnull,default:''"`
	Cycle          string             `bun:"cycle,notnull,default:''"`
	Title          string             `bun:"title,notnull"`
	Description    string             `bun:"description,notnull,default:''"`
	Type           string             `bun:"type,notnull"` // daily, weekly, monthly, seasonal, event, chain
	Tier           int                `bun:"tier,notnull,default:1"`
	Difficulty     string             `bun:"difficulty,notnull,default:'easy'"`
	Objectives     []quest.Objective  `bun:"objectives,type:jsonb"`
	Rewards        quest.Rewards      `bun:"rewards,type:jsonb"`
	Requirements   quest.Requirements `bun:"requirements,type:jsonb"`
	Limitations    quest.Limitations  `bun:"limitations,type:jsonb"`
	AvailableFrom  time.Time          `bun:"available_from,nullzero"`
	AvailableUntil time.Time          `bun:"available_until,nullzero"`
	Active         bool               `bun:"active,notnull,default:false"`
	Version        int64              `bun:"version,notnull,default:1"`
	CreatedAt      time.Time          `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time          `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// QuestDefinition is an authored template. Rotation copies it into
// CommunityQuest rows.
type QuestDefinition struct {
	bun.BaseModel `bun:"table:quest_definitions,alias:qd"`
	QuestColumns
}

type CommunityQuest struct {
	bun.BaseModel `bun:"table:community_quests,alias:cq"`
	QuestColumns
}

// Quest type constants
const (
	QuestTypeDaily   = string(quest.TypeDaily)
	QuestTypeWeekly  = string(quest.TypeWeekly)
	QuestTypeMonthly = string(quest.TypeMonthly)
)

func NewQuestColumns(q *quest.Quest) QuestColumns {
	return QuestColumns{
		ID:             q.ID,
		CommunityID:    q.CommunityID,
		TemplateID:     q.TemplateID,
		Cycle:          q.Cycle,
		Title:          q.Title,
		Description:    q.Description,
		Type:           string(q.Type),
		Tier:           q.Tier,
		Difficulty:     string(q.Difficulty),
		Objectives:     q.Objectives,
		Rewards:        q.Rewards,
		Requirements:   q.Requirements,
		Limitations:    q.Limitations,
		AvailableFrom:  q.AvailableFrom,
		AvailableUntil: q.AvailableUntil,
		Active:         q.Active,
		Version:        q.Version,
		CreatedAt:      q.CreatedAt,
		UpdatedAt:      q.UpdatedAt,
	}
}

func (c QuestColumns) Domain() *quest.Quest {
	return &quest.Quest{
		ID:             c.ID,
		CommunityID:    c.CommunityID,
		TemplateID:     c.TemplateID,
		Cycle:          c.Cycle,
		Title:          c.Title,
		Description:    c.Description,
		Type:           quest.Type(c.Type),
		Tier:           c.Tier,
		Difficulty:     reward.Difficulty(c.Difficulty),
		Objectives:     c.Objectives,
		Rewards:        c.Rewards,
		Requirements:   c.Requirements,
		Limitations:    c.Limitations,
		AvailableFrom:  c.AvailableFrom,
		AvailableUntil: c.AvailableUntil,
		Active:         c.Active,
		Version:        c.Version,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
