package business

import (
	"errors"
	"time"

	"dealflow/internal/models"
	dbconfig "dealflow/pkg/config"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// maxConfirmRetries bounds the optimistic retry loop in ConfirmMembership.
// Exhaustion surfaces as a transient error, never as an allocation failure.
const maxConfirmRetries = 5

// amountEpsilon absorbs float64 noise when comparing commitment sums against
// the target.
const amountEpsilon = 1e-6

// InviteMember creates an invited membership on a planning or active SPV.
// An investor holding any non-declined membership cannot be invited again.
func InviteMember(caller Caller, spvID, investorID uint, proposedAmount float64) (*models.SPVMembership, error) {
	if proposedAmount <= 0 {
		return nil, ErrValidation(ReasonInvalidAmount, "proposed amount must be positive")
	}

	var membership models.SPVMembership
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		var spv models.SPV
		if err := tx.First(&spv, spvID).Error; err != nil {
			return dbError(err, "spv", spvID)
		}
		if err := Authorize(caller, ActionInviteMember, Subject{SPV: &spv}); err != nil {
			return err
		}
		if spv.Terminal() {
			return ErrStateConflict(ReasonSPVNotActive, "memberships can only be invited while the SPV is planning or active", spv)
		}

		var count int64
		if err := tx.Model(&models.SPVMembership{}).
			Where("spv_id = ? AND investor_id = ? AND status <> ?", spvID, investorID, models.MembershipStatusDeclined).
			Count(&count).Error; err != nil {
			return ErrTransient(err)
		}
		if count > 0 {
			return ErrDuplicate(ReasonAlreadyMember, "investor already holds a non-declined membership in this SPV")
		}

		membership = models.SPVMembership{
			SPVID:          spvID,
			InvestorID:     investorID,
			ProposedAmount: proposedAmount,
			Status:         models.MembershipStatusInvited,
		}
		if err := tx.Create(&membership).Error; err != nil {
			return ErrTransient(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("investor %d invited to spv %d for %.2f", investorID, spvID, proposedAmount)
	emitEvent("member.invited", "spv_membership", membership.ID, caller.InvestorID, membership)
	return &membership, nil
}

// RespondToInvite records the invited investor's answer. Accepting moves the
// membership to pending with the given commitment, after a soft headroom check
// against the latest confirmed total; the authoritative check stays in
// ConfirmMembership. A pending member may respond again to lower their amount
// after a failed confirm. Declining is terminal.
func RespondToInvite(caller Caller, membershipID uint, accept bool, commitmentAmount float64) (*models.SPVMembership, error) {
	var membership models.SPVMembership
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&membership, membershipID).Error; err != nil {
			return dbError(err, "membership", membershipID)
		}
		if err := Authorize(caller, ActionRespondMembership, Subject{Membership: &membership}); err != nil {
			return err
		}

		var spv models.SPV
		if err := tx.First(&spv, membership.SPVID).Error; err != nil {
			return dbError(err, "spv", membership.SPVID)
		}
		if spv.Terminal() {
			return ErrStateConflict(ReasonSPVNotActive, "the SPV is no longer accepting responses", spv)
		}

		now := time.Now().UTC()

		if !accept {
			if membership.Status != models.MembershipStatusInvited {
				return ErrStateConflict(ReasonNotInvited, "only an invited membership can be declined", membership)
			}
			return applyMembershipUpdate(tx, &membership, membership.Status, map[string]interface{}{
				"status":       models.MembershipStatusDeclined,
				"responded_at": now,
				"version":      gorm.Expr("version + 1"),
			}, models.MembershipStatusDeclined, &now)
		}

		if commitmentAmount <= 0 {
			return ErrValidation(ReasonInvalidAmount, "commitment amount must be positive")
		}
		if membership.Status != models.MembershipStatusInvited && membership.Status != models.MembershipStatusPending {
			return ErrStateConflict(ReasonNotInvited, "membership is not awaiting a response", membership)
		}

		// Soft headroom check against the confirmed total. Pending amounts are
		// not counted: they are speculative and may shrink on a confirm retry.
		// Advisory only; the hard check re-runs inside the confirm transaction.
		confirmed, err := confirmedTotal(tx, spv.ID)
		if err != nil {
			return ErrTransient(err)
		}
		if confirmed+commitmentAmount > spv.TargetAmount+amountEpsilon {
			progress, perr := progressInTx(tx, &spv)
			if perr != nil {
				return ErrTransient(perr)
			}
			return ErrOverAllocation("commitment exceeds currently visible headroom", progress)
		}

		return applyMembershipUpdate(tx, &membership, membership.Status, map[string]interface{}{
			"status":            models.MembershipStatusPending,
			"commitment_amount": commitmentAmount,
			"responded_at":      now,
			"version":           gorm.Expr("version + 1"),
		}, models.MembershipStatusPending, &now)
	})
	if err != nil {
		return nil, err
	}

	if accept {
		membership.CommitmentAmount = commitmentAmount
	}
	log.Infof("membership %d responded (accept=%t, amount=%.2f)", membership.ID, accept, commitmentAmount)
	emitEvent("member.responded", "spv_membership", membership.ID, caller.InvestorID, membership)
	return &membership, nil
}

// ConfirmMembership is the hard, authoritative admission step. Inside one
// transaction it re-reads the confirmed total, verifies headroom, writes
// pending→confirmed, and bumps the SPV version under an optimistic guard. A
// guard miss means another aggregate mutation (a concurrent confirm, a cancel)
// committed first; the whole transaction is retried so the headroom check
// always runs against the latest committed state. No interleaving lets two
// confirmations both take the last slot.
func ConfirmMembership(caller Caller, membershipID uint) (*models.SPVMembership, error) {
	for attempt := 0; attempt < maxConfirmRetries; attempt++ {
		membership, retry, err := tryConfirm(caller, membershipID)
		if retry {
			continue
		}
		if err != nil {
			return nil, err
		}
		log.Infof("membership %d confirmed at %.2f on spv %d", membership.ID, membership.CommitmentAmount, membership.SPVID)
		emitEvent("member.confirmed", "spv_membership", membership.ID, caller.InvestorID, membership)
		return membership, nil
	}
	return nil, ErrTransient(errors.New("spv aggregate under heavy contention, retry later"))
}

func tryConfirm(caller Caller, membershipID uint) (*models.SPVMembership, bool, error) {
	var membership models.SPVMembership
	retry := false

	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&membership, membershipID).Error; err != nil {
			return dbError(err, "membership", membershipID)
		}
		if err := Authorize(caller, ActionRespondMembership, Subject{Membership: &membership}); err != nil {
			return err
		}
		if membership.Status != models.MembershipStatusPending {
			return ErrStateConflict(ReasonNotInvited, "only a pending membership can be confirmed", membership)
		}

		var spv models.SPV
		if err := tx.First(&spv, membership.SPVID).Error; err != nil {
			return dbError(err, "spv", membership.SPVID)
		}
		if spv.Terminal() {
			return ErrStateConflict(ReasonSPVNotActive, "the SPV is no longer accepting confirmations", spv)
		}

		confirmed, err := confirmedTotal(tx, spv.ID)
		if err != nil {
			return ErrTransient(err)
		}
		if confirmed+membership.CommitmentAmount > spv.TargetAmount+amountEpsilon {
			progress, perr := progressInTx(tx, &spv)
			if perr != nil {
				return ErrTransient(perr)
			}
			return ErrOverAllocation("commitment exceeds remaining headroom", progress)
		}

		// Optimistic guard: the version read above must still be current when
		// the aggregate is written, otherwise the sum is stale.
		res := tx.Model(&models.SPV{}).
			Where("id = ? AND version = ?", spv.ID, spv.Version).
			Update("version", gorm.Expr("version + 1"))
		if res.Error != nil {
			return ErrTransient(res.Error)
		}
		if res.RowsAffected == 0 {
			retry = true
			return errVersionConflict
		}

		now := time.Now().UTC()
		return applyMembershipUpdate(tx, &membership, models.MembershipStatusPending, map[string]interface{}{
			"status":       models.MembershipStatusConfirmed,
			"responded_at": now,
			"version":      gorm.Expr("version + 1"),
		}, models.MembershipStatusConfirmed, &now)
	})
	if retry {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &membership, false, nil
}

// errVersionConflict aborts the confirm transaction for a retry; it never
// escapes ConfirmMembership.
var errVersionConflict = errors.New("spv version conflict")

// applyMembershipUpdate writes a guarded status change on a membership row and
// mirrors it onto the in-memory struct. The fromStatus predicate makes the
// write a compare-and-set so a row racing a cancellation cascade cannot be
// double-transitioned.
func applyMembershipUpdate(tx *gorm.DB, m *models.SPVMembership, fromStatus string, updates map[string]interface{}, toStatus string, respondedAt *time.Time) error {
	res := tx.Model(&models.SPVMembership{}).
		Where("id = ? AND status = ?", m.ID, fromStatus).
		Updates(updates)
	if res.Error != nil {
		return ErrTransient(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStateConflict(ReasonNotInvited, "membership state changed concurrently", m)
	}
	m.Status = toStatus
	m.RespondedAt = respondedAt
	m.Version++
	return nil
}
