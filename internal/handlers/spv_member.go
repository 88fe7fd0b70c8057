package handlers

import (
	"net/http"

	"dealflow/internal/handlers/business"

	"github.com/gin-gonic/gin"
)

// InviteMemberRequest is the request body for inviting a co-investor
type InviteMemberRequest struct {
	InvestorID     uint    `json:"investor_id" binding:"required"`
	ProposedAmount float64 `json:"proposed_amount" binding:"required"`
}

// UpdateMembershipRequest drives the respond/confirm transitions. Action is
// one of "accept", "decline" or "confirm"; commitment_amount applies to
// "accept" only.
type UpdateMembershipRequest struct {
	Action           string  `json:"action" binding:"required"`
	CommitmentAmount float64 `json:"commitment_amount"`
}

// InviteMember invites a co-investor into an SPV
func InviteMember(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}
	spvID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var request InviteMemberRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	membership, err := business.InviteMember(caller, spvID, request.InvestorID, request.ProposedAmount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, membership)
}

// ListSPVMembers returns the membership roster of an SPV
func ListSPVMembers(c *gin.Context) {
	spvID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	members, err := business.ListMembers(spvID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// UpdateMembership applies a respond or confirm transition to a membership
func UpdateMembership(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}
	if _, ok := parseIDParam(c, "id"); !ok {
		return
	}
	membershipID, ok := parseIDParam(c, "mid")
	if !ok {
		return
	}

	var request UpdateMembershipRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch request.Action {
	case "accept":
		membership, err := business.RespondToInvite(caller, membershipID, true, request.CommitmentAmount)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, membership)
	case "decline":
		membership, err := business.RespondToInvite(caller, membershipID, false, 0)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, membership)
	case "confirm":
		membership, err := business.ConfirmMembership(caller, membershipID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, membership)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be accept, decline or confirm"})
	}
}
