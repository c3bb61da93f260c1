package models

import (
	"time"

	"github.com/ellavondegurechaff/progression/internal/domain/reward"
	"github.com/ellavondegurechaff/progression/internal/domain/trade"
	"github.com/uptrace/bun"
)

type Trade struct {
	bun.BaseModel `bun:"table:trades,alias:t"`

	ID          string        `bun:"id,pk"`
	CommunityID string        `bun:"community_id,notnull"`
	OffererID   string        `bun:"offerer_id,notnull"`
	TargetID    string        `bun:"target_id,notnull"`
	Offer       reward.Bundle `bun:"offer,type:jsonb"`
	Request     reward.Bundle `bun:"request,type:jsonb"`
	Status      string        `bun:"status,notnull"`
	ExpiresAt   time.Time     `bun:"expires_at,notnull"`
	SettlingAt  *time.Time    `bun:"settling_at"`
	ResolvedAt  *time.Time    `bun:"resolved_at"`
	Version     int64         `bun:"version,notnull,default:1"`
	CreatedAt   time.Time     `bun:"created_at,notnull,default:current_timestamp"`
}

func NewTrade(r *trade.Record) *Trade {
	return &Trade{
		ID:          r.ID,
		CommunityID: r.CommunityID,
		OffererID:   r.OffererID,
		TargetID:    r.TargetID,
		Offer:       r.Offer,
		Request:     r.Request,
		Status:      string(r.Status),
		ExpiresAt:   r.ExpiresAt,
		SettlingAt:  r.SettlingAt,
		ResolvedAt:  r.ResolvedAt,
		Version:     r.Version,
		CreatedAt:   r.CreatedAt,
	}
}

func (t *Trade) Domain() *trade.Record {
	return &trade.Record{
		ID:          t.ID,
		CommunityID: t.CommunityID,
		OffererID:   t.OffererID,
		TargetID:    t.TargetID,
		Offer:       t.Offer,
		Request:     t.Request,
		Status:      trade.Status(t.Status),
		CreatedAt:   t.CreatedAt,
		ExpiresAt:   t.ExpiresAt,
		SettlingAt:  t.SettlingAt,
		ResolvedAt:  t.ResolvedAt,
		Version:     t.Version,
	}
}
