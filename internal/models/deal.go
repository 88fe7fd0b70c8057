package models

import (
	"time"
)

// Deal statuses as synced from the deal-management service
const (
	DealStatusOpen        = "open"
	DealStatusClosingSoon = "closing_soon"
	DealStatusClosed      = "closed"
)

// Deal is a locally synced, read-only copy of a deal owned by the external
// deal-management service. The syndication core never mutates it.
type Deal struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	CompanyName   string    `gorm:"size:128;not null" json:"company_name"`
	Amount        float64   `gorm:"not null" json:"amount"`
	Valuation     float64   `gorm:"not null" json:"valuation"`
	Sector        string    `gorm:"size:64" json:"sector"`
	Stage         string    `gorm:"size:32" json:"stage"`
	Status        string    `gorm:"size:20;not null;default:'open'" json:"status"`
	MinInvestment float64   `gorm:"not null;default:0" json:"min_investment"`
	Version       uint      `gorm:"not null;default:1" json:"version"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Deal) TableName() string {
	return "deal"
}
