package business

import (
	"dealflow/internal/models"
)

const (
	RoleInvestor = "investor"
	RoleAdmin    = "admin"
)

// Caller is the identity resolved by the upstream gateway.
type Caller struct {
	InvestorID uint
	Role       string
}

// Action names every mutating operation gated by Authorize.
type Action string

const (
	ActionDecideInterest    Action = "interest.decide"
	ActionCreateSPV         Action = "spv.create"
	ActionActivateSPV       Action = "spv.activate"
	ActionCloseSPV          Action = "spv.close"
	ActionCancelSPV         Action = "spv.cancel"
	ActionInviteMember      Action = "member.invite"
	ActionRespondMembership Action = "member.respond"
)

// Subject carries whichever entities the action is judged against.
type Subject struct {
	Interest   *models.DealInterest
	SPV        *models.SPV
	Membership *models.SPVMembership
}

// Authorize is the single capability predicate over (caller, action, subject).
// SPV lifecycle actions and invites belong to the lead investor or an admin;
// creating an SPV belongs to the accepted interest's investor; responding to
// (or confirming) a membership belongs to that membership's investor; interest
// decisions are admin-only.
func Authorize(caller Caller, action Action, sub Subject) error {
	if caller.Role == RoleAdmin {
		return nil
	}
	switch action {
	case ActionDecideInterest:
		return ErrAuthorization("interest decisions require the admin role")
	case ActionCreateSPV:
		if sub.Interest != nil && sub.Interest.InvestorID == caller.InvestorID {
			return nil
		}
		return ErrAuthorization("only the interest's investor may create an SPV from it")
	case ActionActivateSPV, ActionCloseSPV, ActionCancelSPV, ActionInviteMember:
		if sub.SPV != nil && sub.SPV.LeadInvestorID == caller.InvestorID {
			return nil
		}
		return ErrAuthorization("only the lead investor may manage this SPV")
	case ActionRespondMembership:
		if sub.Membership != nil && sub.Membership.InvestorID == caller.InvestorID {
			return nil
		}
		return ErrAuthorization("only the invited investor may respond to this membership")
	}
	return ErrAuthorization("action not permitted")
}
