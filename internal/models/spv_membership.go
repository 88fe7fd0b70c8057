package models

import (
	"time"
)

const (
	MembershipStatusInvited   = "invited"
	MembershipStatusPending   = "pending"
	MembershipStatusConfirmed = "confirmed"
	MembershipStatusDeclined  = "declined"
)

// SPVMembership tracks one co-investor's commitment inside an SPV. Rows are
// never hard-deleted; cancellation soft-transitions them to declined. The
// funding ceiling invariant is over confirmed rows only:
// sum(commitment_amount where status=confirmed) <= spv.target_amount.
type SPVMembership struct {
	ID               uint       `gorm:"primarykey" json:"id"`
	SPVID            uint       `gorm:"column:spv_id;not null;index" json:"spv_id"`
	InvestorID       uint       `gorm:"not null;index" json:"investor_id"`
	ProposedAmount   float64    `gorm:"not null;default:0" json:"proposed_amount"`
	CommitmentAmount float64    `gorm:"not null;default:0" json:"commitment_amount"`
	Status           string     `gorm:"size:20;not null;default:'invited'" json:"status"`
	InvitedAt        time.Time  `json:"invited_at" gorm:"autoCreateTime"`
	RespondedAt      *time.Time `json:"responded_at,omitempty"`
	Version          uint       `gorm:"not null;default:1" json:"version"`
	CreatedAt        time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (SPVMembership) TableName() string {
	return "spv_membership"
}
