package models

import (
	"time"

	"github.com/ellavondegurechaff/progression/internal/domain/quest"
	"github.com/ellavondegurechaff/progression/internal/domain/reward"
	"github.com/uptrace/bun"
)

type UserQuestProgress struct {
	bun.BaseModel `bun:"table:user_quest_progress,alias:uqp"`

	ID              string           `bun:"id,pk"`
	UserID          string           `bun:"user_id,notnull"`
	CommunityID     string           `bun:"community_id,notnull"`
	QuestID         string           `bun:"quest_id,notnull"`
	TemplateID      string           `bun:"template_id,notnull"`
	QuestType       string           `bun:"quest_type,notnull"`
	Status          string           `bun:"status,notnull"`
	Counters        map[string]int64 `bun:"counters,type:jsonb"`
	StartedAt       time.Time        `bun:"started_at,notnull"`
	CompletedAt     *time.Time       `bun:"completed_at"`
	ClaimedAt       *time.Time       `bun:"claimed_at"`
	FailedAt        *time.Time       `bun:"failed_at"`
	ExpiredAt       *time.Time       `bun:"expired_at"`
	TimeSpent       time.Duration    `bun:"time_spent,notnull,default:0"`
	Multiplier      float64          `bun:"multiplier,notnull,default:0"`
	StreakBonus     int64            `bun:"streak_bonus,notnull,default:0"`
	Reward          reward.Bundle    `bun:"reward,type:jsonb"`
	RewardDelivered bool             `bun:"reward_delivered,notnull,default:false"`
	Version         int64            `bun:"version,notnull,default:1"`
	UpdatedAt       time.Time        `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func NewUserQuestProgress(p *quest.Progress) *UserQuestProgress {
	return &UserQuestProgress{
		ID:              p.ID,
		UserID:          p.UserID,
		CommunityID:     p.CommunityID,
		QuestID:         p.QuestID,
		TemplateID:      p.TemplateID,
		QuestType:       string(p.QuestType),
		Status:          string(p.Status),
		Counters:        p.Counters,
		StartedAt:       p.StartedAt,
		CompletedAt:     p.CompletedAt,
		ClaimedAt:       p.ClaimedAt,
		FailedAt:        p.FailedAt,
		ExpiredAt:       p.ExpiredAt,
		TimeSpent:       p.TimeSpent,
		Multiplier:      p.Multiplier,
		StreakBonus:     p.StreakBonus,
		Reward:          p.Reward,
		RewardDelivered: p.RewardDelivered,
		Version:         p.Version,
		UpdatedAt:       p.UpdatedAt,
	}
}

func (m *UserQuestProgress) Domain() *quest.Progress {
	counters := quest.Counters(m.Counters)
	if counters == nil {
		counters = quest.Counters{}
	}
	return &quest.Progress{
		ID:              m.ID,
		UserID:          m.UserID,
		CommunityID:     m.CommunityID,
		QuestID:         m.QuestID,
		TemplateID:      m.TemplateID,
		QuestType:       quest.Type(m.QuestType),
		Status:          quest.Status(m.Status),
		Counters:        counters,
		StartedAt:       m.StartedAt,
		CompletedAt:     m.CompletedAt,
		ClaimedAt:       m.ClaimedAt,
		FailedAt:        m.FailedAt,
		ExpiredAt:       m.ExpiredAt,
		TimeSpent:       m.TimeSpent,
		Multiplier:      m.Multiplier,
		StreakBonus:     m.StreakBonus,
		Reward:          m.Reward,
		RewardDelivered: m.RewardDelivered,
		Version:         m.Version,
		UpdatedAt:       m.UpdatedAt,
	}
}
