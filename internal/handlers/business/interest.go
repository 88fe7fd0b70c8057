package business

import (
	"time"

	"dealflow/internal/models"
	dbconfig "dealflow/pkg/config"
	"dealflow/pkg/compliance"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SubmitInterest records an investor's intent to invest in a deal. The
// accreditation precondition and all validation run before any write.
func SubmitInterest(caller Caller, dealID uint, amount float64, notes string) (*models.DealInterest, error) {
	accredited, err := compliance.AccreditationValid(caller.InvestorID)
	if err != nil {
		return nil, ErrTransient(err)
	}
	if !accredited {
		return nil, ErrValidation(ReasonNotAccredited, "investor %d has no valid accreditation", caller.InvestorID)
	}

	var deal models.Deal
	if err := dbconfig.DB.First(&deal, dealID).Error; err != nil {
		return nil, dbError(err, "deal", dealID)
	}
	if deal.Status != models.DealStatusOpen {
		return nil, ErrStateConflict(ReasonDealNotOpen, "deal is not open for interest", deal)
	}
	if amount < deal.MinInvestment {
		return nil, ErrValidation(ReasonInvalidAmount, "amount %.2f is below the deal minimum investment %.2f", amount, deal.MinInvestment)
	}

	interest := models.DealInterest{
		DealID:                    dealID,
		InvestorID:                caller.InvestorID,
		CommitmentAmountRequested: amount,
		Notes:                     notes,
		Status:                    models.InterestStatusPending,
	}

	err = dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.DealInterest{}).
			Where("deal_id = ? AND investor_id = ? AND status <> ?", dealID, caller.InvestorID, models.InterestStatusRejected).
			Count(&count).Error; err != nil {
			return ErrTransient(err)
		}
		if count > 0 {
			return ErrDuplicate(ReasonDuplicateInterest, "a non-rejected interest already exists for this deal and investor")
		}
		if err := tx.Create(&interest).Error; err != nil {
			return ErrTransient(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("interest %d submitted by investor %d on deal %d for %.2f", interest.ID, caller.InvestorID, dealID, amount)
	emitEvent("interest.submitted", "deal_interest", interest.ID, caller.InvestorID, interest)
	return &interest, nil
}

// DecideInterest transitions a pending interest to accepted or rejected.
// Decisions are terminal; a decided interest never transitions again.
func DecideInterest(caller Caller, interestID uint, decision string) (*models.DealInterest, error) {
	if err := Authorize(caller, ActionDecideInterest, Subject{}); err != nil {
		return nil, err
	}
	if decision != models.InterestStatusAccepted && decision != models.InterestStatusRejected {
		return nil, ErrValidation("InvalidDecision", "decision must be %q or %q", models.InterestStatusAccepted, models.InterestStatusRejected)
	}

	var interest models.DealInterest
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&interest, interestID).Error; err != nil {
			return dbError(err, "deal interest", interestID)
		}
		if interest.Status != models.InterestStatusPending {
			return ErrStateConflict(ReasonNotPending, "interest has already been decided", interest)
		}

		now := time.Now().UTC()
		res := tx.Model(&models.DealInterest{}).
			Where("id = ? AND status = ?", interestID, models.InterestStatusPending).
			Updates(map[string]interface{}{
				"status":     decision,
				"decided_at": now,
				"decided_by": caller.InvestorID,
				"version":    gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return ErrTransient(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrStateConflict(ReasonNotPending, "interest has already been decided", interest)
		}

		interest.Status = decision
		interest.DecidedAt = &now
		interest.DecidedBy = caller.InvestorID
		interest.Version++
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("interest %d %s by %d", interest.ID, decision, caller.InvestorID)
	emitEvent("interest.decided", "deal_interest", interest.ID, caller.InvestorID, interest)
	return &interest, nil
}

// GetInterest loads a single interest with its deal.
func GetInterest(interestID uint) (*models.DealInterest, error) {
	var interest models.DealInterest
	if err := dbconfig.DB.Preload("Deal").First(&interest, interestID).Error; err != nil {
		return nil, dbError(err, "deal interest", interestID)
	}
	return &interest, nil
}

// ListInterestsByDeal returns every interest recorded for a deal.
func ListInterestsByDeal(dealID uint) ([]models.DealInterest, error) {
	var interests []models.DealInterest
	if err := dbconfig.DB.Where("deal_id = ?", dealID).Order("created_at").Find(&interests).Error; err != nil {
		return nil, ErrTransient(err)
	}
	return interests, nil
}
