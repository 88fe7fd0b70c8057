package business

import (
	"dealflow/internal/models"
	dbconfig "dealflow/pkg/config"

	"gorm.io/gorm"
)

// MemberCounts breaks the roster down by membership status.
type MemberCounts struct {
	Confirmed int64 `json:"confirmed"`
	Pending   int64 `json:"pending"`
	Invited   int64 `json:"invited"`
	Declined  int64 `json:"declined"`
}

// Progress is the ledger-derived funding state of one SPV. Always computed
// from the current transactional snapshot; never cached.
type Progress struct {
	SPVID             uint         `json:"spv_id"`
	Status            string       `json:"status"`
	ConfirmedTotal    float64      `json:"confirmed_total"`
	TargetAmount      float64      `json:"target_amount"`
	PercentComplete   float64      `json:"percent_complete"`
	RemainingHeadroom float64      `json:"remaining_headroom"`
	MemberCounts      MemberCounts `json:"member_counts"`
	Version           uint         `json:"version"`
}

// CarryEntry is one confirmed member's slice of the closed SPV.
type CarryEntry struct {
	MembershipID     uint    `json:"membership_id"`
	InvestorID       uint    `json:"investor_id"`
	IsLead           bool    `json:"is_lead"`
	CommitmentAmount float64 `json:"commitment_amount"`
	Share            float64 `json:"share"`
	EffectiveShare   float64 `json:"effective_share"`
}

// CarryDistribution is the profit-share breakdown of a closed SPV.
type CarryDistribution struct {
	SPVID           uint         `json:"spv_id"`
	TargetAmount    float64      `json:"target_amount"`
	ConfirmedTotal  float64      `json:"confirmed_total"`
	CarryPercentage float64      `json:"carry_percentage"`
	Entries         []CarryEntry `json:"entries"`
}

// GetProgress derives the funding aggregates for an SPV inside one
// transaction, the same isolation the confirm path writes under, so it can
// never observe a sum past the target.
func GetProgress(spvID uint) (*Progress, error) {
	var progress *Progress
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		var spv models.SPV
		if err := tx.First(&spv, spvID).Error; err != nil {
			return dbError(err, "spv", spvID)
		}
		p, err := progressInTx(tx, &spv)
		if err != nil {
			return ErrTransient(err)
		}
		progress = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return progress, nil
}

func progressInTx(tx *gorm.DB, spv *models.SPV) (*Progress, error) {
	confirmed, err := confirmedTotal(tx, spv.ID)
	if err != nil {
		return nil, err
	}

	var counts []struct {
		Status string
		N      int64
	}
	if err := tx.Model(&models.SPVMembership{}).
		Select("status, COUNT(*) AS n").
		Where("spv_id = ?", spv.ID).
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, err
	}

	p := &Progress{
		SPVID:          spv.ID,
		Status:         spv.Status,
		ConfirmedTotal: confirmed,
		TargetAmount:   spv.TargetAmount,
		Version:        spv.Version,
	}
	for _, c := range counts {
		switch c.Status {
		case models.MembershipStatusConfirmed:
			p.MemberCounts.Confirmed = c.N
		case models.MembershipStatusPending:
			p.MemberCounts.Pending = c.N
		case models.MembershipStatusInvited:
			p.MemberCounts.Invited = c.N
		case models.MembershipStatusDeclined:
			p.MemberCounts.Declined = c.N
		}
	}
	if spv.TargetAmount > 0 {
		p.PercentComplete = confirmed / spv.TargetAmount * 100
	}
	p.RemainingHeadroom = spv.TargetAmount - confirmed
	if p.RemainingHeadroom < 0 {
		p.RemainingHeadroom = 0
	}
	return p, nil
}

// ComputeCarryDistribution returns each confirmed member's share of a closed
// SPV: share = commitment / target at close. The effective share nets out the
// lead's carry: every member keeps share*(1-carry) and the lead additionally
// receives the whole carry slice. When the SPV closed exactly at target the
// raw shares sum to 1 within float tolerance.
func ComputeCarryDistribution(spvID uint) (*CarryDistribution, error) {
	var dist *CarryDistribution
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		var spv models.SPV
		if err := tx.First(&spv, spvID).Error; err != nil {
			return dbError(err, "spv", spvID)
		}
		if spv.Status != models.SPVStatusClosed {
			return ErrStateConflict(ReasonSPVNotClosed, "carry distribution is only defined for a closed SPV", spv)
		}

		var members []models.SPVMembership
		if err := tx.Where("spv_id = ? AND status = ?", spv.ID, models.MembershipStatusConfirmed).
			Order("invited_at").Find(&members).Error; err != nil {
			return ErrTransient(err)
		}

		carry := spv.CarryPercentage / 100
		d := &CarryDistribution{
			SPVID:           spv.ID,
			TargetAmount:    spv.TargetAmount,
			CarryPercentage: spv.CarryPercentage,
			Entries:         make([]CarryEntry, 0, len(members)),
		}
		for _, m := range members {
			share := 0.0
			if spv.TargetAmount > 0 {
				share = m.CommitmentAmount / spv.TargetAmount
			}
			entry := CarryEntry{
				MembershipID:     m.ID,
				InvestorID:       m.InvestorID,
				IsLead:           m.InvestorID == spv.LeadInvestorID,
				CommitmentAmount: m.CommitmentAmount,
				Share:            share,
				EffectiveShare:   share * (1 - carry),
			}
			if entry.IsLead {
				entry.EffectiveShare += carry
			}
			d.ConfirmedTotal += m.CommitmentAmount
			d.Entries = append(d.Entries, entry)
		}
		dist = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dist, nil
}
