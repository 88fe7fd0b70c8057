package models

import (
	"time"
)

const (
	InterestStatusPending  = "pending"
	InterestStatusAccepted = "accepted"
	InterestStatusRejected = "rejected"
)

// DealInterest records an investor's intent to invest in a deal. At most one
// non-rejected interest may exist per (deal, investor) pair. Once decided the
// row is terminal; a fresh interest is required to try again.
type DealInterest struct {
	ID                        uint       `gorm:"primarykey" json:"id"`
	DealID                    uint       `gorm:"not null;index" json:"deal_id"`
	InvestorID                uint       `gorm:"not null;index" json:"investor_id"`
	CommitmentAmountRequested float64    `gorm:"not null" json:"commitment_amount_requested"`
	Notes                     string     `gorm:"type:text" json:"notes"`
	Status                    string     `gorm:"size:20;not null;default:'pending'" json:"status"`
	DecidedAt                 *time.Time `json:"decided_at,omitempty"`
	DecidedBy                 uint       `gorm:"default:0" json:"decided_by"`
	Version                   uint       `gorm:"not null;default:1" json:"version"`
	CreatedAt                 time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt                 time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	Deal *Deal `gorm:"foreignKey:DealID" json:"deal,omitempty"`
}

func (DealInterest) TableName() string {
	return "deal_interest"
}
