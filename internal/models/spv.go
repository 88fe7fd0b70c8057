package models

import (
	"time"
)

const (
	SPVStatusPlanning  = "planning"
	SPVStatusActive    = "active"
	SPVStatusClosed    = "closed"
	SPVStatusCancelled = "cancelled"
)

// SPV is a pooled-investment vehicle spawned from exactly one accepted
// DealInterest. Lifecycle: planning → active → closed, forward only; any
// non-terminal state may move to cancelled. The Version column is bumped on
// every mutation of the SPV or its membership aggregate and doubles as the
// optimistic guard for ledger writes.
type SPV struct {
	ID              uint       `gorm:"primarykey" json:"id"`
	DealID          uint       `gorm:"not null;index" json:"deal_id"`
	InterestID      uint       `gorm:"not null;index" json:"interest_id"`
	LeadInvestorID  uint       `gorm:"not null;index" json:"lead_investor_id"`
	Name            string     `gorm:"size:128;not null" json:"name"`
	TargetAmount    float64    `gorm:"not null" json:"target_amount"`
	CarryPercentage float64    `gorm:"not null;default:0" json:"carry_percentage"`
	Status          string     `gorm:"size:20;not null;default:'planning'" json:"status"`
	Description     string     `gorm:"type:text" json:"description"`
	ClosesAt        *time.Time `json:"closes_at,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	Version         uint       `gorm:"not null;default:1" json:"version"`
	CreatedAt       time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (SPV) TableName() string {
	return "spv"
}

// Terminal reports whether no further lifecycle transition is possible.
func (s *SPV) Terminal() bool {
	return s.Status == SPVStatusClosed || s.Status == SPVStatusCancelled
}
