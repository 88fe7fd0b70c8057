package business

import (
	"time"

	"dealflow/internal/models"
	dbconfig "dealflow/pkg/config"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CreateSPVInput is the flat, server-validated input for SPV creation. The
// multi-step wizard the investor UI shows collapses to this one struct.
type CreateSPVInput struct {
	InterestID      uint
	Name            string
	TargetAmount    float64
	CarryPercentage float64
	Description     string
	ClosesAt        *time.Time
}

// CreateSPV spawns a pooled vehicle from an accepted deal interest. The lead
// investor gets an implicit confirmed membership seeded from their original
// interest amount, created in the same transaction as the SPV itself.
func CreateSPV(caller Caller, in CreateSPVInput) (*models.SPV, error) {
	if in.Name == "" {
		return nil, ErrValidation("MissingName", "spv name is required")
	}
	if in.CarryPercentage < 0 || in.CarryPercentage > 100 {
		return nil, ErrValidation("InvalidCarry", "carry percentage must be between 0 and 100")
	}

	var interest models.DealInterest
	if err := dbconfig.DB.First(&interest, in.InterestID).Error; err != nil {
		return nil, dbError(err, "deal interest", in.InterestID)
	}
	if err := Authorize(caller, ActionCreateSPV, Subject{Interest: &interest}); err != nil {
		return nil, err
	}
	if interest.Status != models.InterestStatusAccepted {
		return nil, ErrStateConflict(ReasonInterestNotAccepted, "interest must be accepted before an SPV can be created", interest)
	}
	if in.TargetAmount < interest.CommitmentAmountRequested {
		return nil, ErrValidation(ReasonInvalidTarget, "target amount %.2f is below the lead commitment %.2f", in.TargetAmount, interest.CommitmentAmountRequested)
	}

	spv := models.SPV{
		DealID:          interest.DealID,
		InterestID:      interest.ID,
		LeadInvestorID:  interest.InvestorID,
		Name:            in.Name,
		TargetAmount:    in.TargetAmount,
		CarryPercentage: in.CarryPercentage,
		Status:          models.SPVStatusPlanning,
		Description:     in.Description,
		ClosesAt:        in.ClosesAt,
	}

	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.SPV{}).
			Where("interest_id = ? AND status <> ?", interest.ID, models.SPVStatusCancelled).
			Count(&count).Error; err != nil {
			return ErrTransient(err)
		}
		if count > 0 {
			return ErrDuplicate(ReasonDuplicateSPV, "this interest already owns a non-cancelled SPV")
		}
		if err := tx.Create(&spv).Error; err != nil {
			return ErrTransient(err)
		}

		now := time.Now().UTC()
		lead := models.SPVMembership{
			SPVID:            spv.ID,
			InvestorID:       interest.InvestorID,
			ProposedAmount:   interest.CommitmentAmountRequested,
			CommitmentAmount: interest.CommitmentAmountRequested,
			Status:           models.MembershipStatusConfirmed,
			RespondedAt:      &now,
		}
		if err := tx.Create(&lead).Error; err != nil {
			return ErrTransient(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("spv %d created from interest %d by investor %d (target %.2f)", spv.ID, interest.ID, interest.InvestorID, spv.TargetAmount)
	emitEvent("spv.created", "spv", spv.ID, caller.InvestorID, spv)
	return &spv, nil
}

// ActivateSPV moves a planning SPV to active, opening it for responses and
// confirmations beyond the lead's seed.
func ActivateSPV(caller Caller, spvID uint) (*models.SPV, error) {
	var spv models.SPV
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&spv, spvID).Error; err != nil {
			return dbError(err, "spv", spvID)
		}
		if err := Authorize(caller, ActionActivateSPV, Subject{SPV: &spv}); err != nil {
			return err
		}
		if spv.Status != models.SPVStatusPlanning {
			return ErrStateConflict(ReasonSPVNotActive, "only a planning SPV can be activated", spv)
		}

		var leadConfirmed int64
		if err := tx.Model(&models.SPVMembership{}).
			Where("spv_id = ? AND investor_id = ? AND status = ?", spv.ID, spv.LeadInvestorID, models.MembershipStatusConfirmed).
			Count(&leadConfirmed).Error; err != nil {
			return ErrTransient(err)
		}
		if leadConfirmed == 0 {
			return ErrStateConflict(ReasonSPVNotActive, "lead membership is not confirmed", spv)
		}

		return transitionSPV(tx, &spv, models.SPVStatusActive)
	})
	if err != nil {
		return nil, err
	}

	log.Infof("spv %d activated", spv.ID)
	emitEvent("spv.activated", "spv", spv.ID, caller.InvestorID, spv)
	return &spv, nil
}

// CloseSPV closes an active SPV. Closing is always allowed once the confirmed
// total has reached the target; before that, only by lead action before the
// close deadline. Closed is terminal: no further membership mutation.
func CloseSPV(caller Caller, spvID uint) (*models.SPV, error) {
	var spv models.SPV
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&spv, spvID).Error; err != nil {
			return dbError(err, "spv", spvID)
		}
		if err := Authorize(caller, ActionCloseSPV, Subject{SPV: &spv}); err != nil {
			return err
		}
		if spv.Status != models.SPVStatusActive {
			return ErrStateConflict(ReasonSPVNotActive, "only an active SPV can be closed", spv)
		}

		confirmed, err := confirmedTotal(tx, spv.ID)
		if err != nil {
			return ErrTransient(err)
		}
		if confirmed < spv.TargetAmount {
			if spv.ClosesAt != nil && time.Now().After(*spv.ClosesAt) {
				return ErrStateConflict("CloseDeadlinePassed", "underfunded SPV cannot be closed after its deadline", spv)
			}
		}

		now := time.Now().UTC()
		spv.ClosedAt = &now
		return transitionSPV(tx, &spv, models.SPVStatusClosed)
	})
	if err != nil {
		return nil, err
	}

	log.Infof("spv %d closed", spv.ID)
	emitEvent("spv.closed", "spv", spv.ID, caller.InvestorID, spv)
	return &spv, nil
}

// CancelSPV cancels any non-closed SPV and declines every invited or pending
// membership in the same transaction, so no confirm can race the cascade.
// Idempotent: cancelling an already cancelled SPV returns it unchanged.
func CancelSPV(caller Caller, spvID uint) (*models.SPV, error) {
	var spv models.SPV
	alreadyCancelled := false

	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&spv, spvID).Error; err != nil {
			return dbError(err, "spv", spvID)
		}
		if err := Authorize(caller, ActionCancelSPV, Subject{SPV: &spv}); err != nil {
			return err
		}
		if spv.Status == models.SPVStatusCancelled {
			alreadyCancelled = true
			return nil
		}
		if spv.Status == models.SPVStatusClosed {
			return ErrStateConflict(ReasonSPVClosed, "a closed SPV cannot be cancelled", spv)
		}

		if err := transitionSPV(tx, &spv, models.SPVStatusCancelled); err != nil {
			return err
		}

		now := time.Now().UTC()
		res := tx.Model(&models.SPVMembership{}).
			Where("spv_id = ? AND status IN ?", spv.ID, []string{models.MembershipStatusInvited, models.MembershipStatusPending}).
			Updates(map[string]interface{}{
				"status":       models.MembershipStatusDeclined,
				"responded_at": now,
				"version":      gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return ErrTransient(res.Error)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !alreadyCancelled {
		log.Infof("spv %d cancelled", spv.ID)
		emitEvent("spv.cancelled", "spv", spv.ID, caller.InvestorID, spv)
	}
	return &spv, nil
}

// GetSPV loads a single SPV.
func GetSPV(spvID uint) (*models.SPV, error) {
	var spv models.SPV
	if err := dbconfig.DB.First(&spv, spvID).Error; err != nil {
		return nil, dbError(err, "spv", spvID)
	}
	return &spv, nil
}

// ListSPVsByDeal returns every SPV raised against a deal.
func ListSPVsByDeal(dealID uint) ([]models.SPV, error) {
	var spvs []models.SPV
	if err := dbconfig.DB.Where("deal_id = ?", dealID).Order("created_at").Find(&spvs).Error; err != nil {
		return nil, ErrTransient(err)
	}
	return spvs, nil
}

// ListSPVsByLead returns every SPV led by an investor.
func ListSPVsByLead(investorID uint) ([]models.SPV, error) {
	var spvs []models.SPV
	if err := dbconfig.DB.Where("lead_investor_id = ?", investorID).Order("created_at").Find(&spvs).Error; err != nil {
		return nil, ErrTransient(err)
	}
	return spvs, nil
}

// ListMembers returns the full membership roster of an SPV.
func ListMembers(spvID uint) ([]models.SPVMembership, error) {
	if _, err := GetSPV(spvID); err != nil {
		return nil, err
	}
	var members []models.SPVMembership
	if err := dbconfig.DB.Where("spv_id = ?", spvID).Order("invited_at").Find(&members).Error; err != nil {
		return nil, ErrTransient(err)
	}
	return members, nil
}

// transitionSPV writes a status change guarded by the SPV version, bumping it.
// A guard miss means a concurrent aggregate mutation won the race.
func transitionSPV(tx *gorm.DB, spv *models.SPV, status string) error {
	updates := map[string]interface{}{
		"status":  status,
		"version": gorm.Expr("version + 1"),
	}
	if spv.ClosedAt != nil {
		updates["closed_at"] = *spv.ClosedAt
	}
	res := tx.Model(&models.SPV{}).
		Where("id = ? AND version = ?", spv.ID, spv.Version).
		Updates(updates)
	if res.Error != nil {
		return ErrTransient(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStateConflict("VersionConflict", "spv was modified concurrently, reload and retry", spv)
	}
	spv.Status = status
	spv.Version++
	return nil
}

// confirmedTotal sums confirmed commitments for an SPV inside the caller's
// transaction snapshot. Never served from a cache.
func confirmedTotal(tx *gorm.DB, spvID uint) (float64, error) {
	var total float64
	err := tx.Model(&models.SPVMembership{}).
		Where("spv_id = ? AND status = ?", spvID, models.MembershipStatusConfirmed).
		Select("COALESCE(SUM(commitment_amount), 0)").
		Scan(&total).Error
	return total, err
}
