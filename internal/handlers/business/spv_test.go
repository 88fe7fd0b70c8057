package business

import (
	"testing"
	"time"

	"dealflow/internal/models"
	dbconfig "dealflow/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSPVGuards(t *testing.T) {
	setupTestDB(t)
	deal := seedDeal(t, 1_000_000)

	pending, err := SubmitInterest(investor(1), deal.ID, 5_000_000, "")
	require.NoError(t, err)

	// Interest not yet accepted
	_, err = CreateSPV(investor(1), CreateSPVInput{InterestID: pending.ID, Name: "Syndicate I", TargetAmount: 10_000_000})
	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, CodeStateConflict, de.Code)
	assert.Equal(t, ReasonInterestNotAccepted, de.Reason)

	accepted, err := DecideInterest(admin(), pending.ID, models.InterestStatusAccepted)
	require.NoError(t, err)

	// Only the interest's investor may create the SPV
	_, err = CreateSPV(investor(2), CreateSPVInput{InterestID: accepted.ID, Name: "Syndicate I", TargetAmount: 10_000_000})
	de, ok = AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, CodeAuthorization, de.Code)

	// Target below the lead commitment
	_, err = CreateSPV(investor(1), CreateSPVInput{InterestID: accepted.ID, Name: "Syndicate I", TargetAmount: 4_000_000})
	de, ok = AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, CodeValidation, de.Code)
	assert.Equal(t, ReasonInvalidTarget, de.Reason)
}

func TestCreateSPVSeedsLeadMembership(t *testing.T) {
	setupTestDB(t)
	deal := seedDeal(t, 1_000_000)
	interest := seedAcceptedInterest(t, deal, 1, 5_000_000)

	spv, err := CreateSPV(investor(1), CreateSPVInput{
		InterestID:      interest.ID,
		Name:            "TechStartup SPV 2026",
		TargetAmount:    20_000_000,
		CarryPercentage: 20,
		Description:     "pooled vehicle",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SPVStatusPlanning, spv.Status)
	assert.Equal(t, deal.ID, spv.DealID)
	assert.Equal(t, uint(1), spv.LeadInvestorID)

	members, err := ListMembers(spv.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, models.MembershipStatusConfirmed, members[0].Status)
	assert.Equal(t, 5_000_000.0, members[0].CommitmentAmount)
	assert.Equal(t, uint(1), members[0].InvestorID)
}

func TestCreateSPVDuplicatePerInterest(t *testing.T) {
	setupTestDB(t)
	deal := seedDeal(t, 1_000_000)
	interest := seedAcceptedInterest(t, deal, 1, 5_000_000)

	first, err := CreateSPV(investor(1), CreateSPVInput{InterestID: interest.ID, Name: "Syndicate I", TargetAmount: 10_000_000})
	require.NoError(t, err)

	_, err = CreateSPV(investor(1), CreateSPVInput{InterestID: interest.ID, Name: "Syndicate II", TargetAmount: 10_000_000})
	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, CodeDuplicate, de.Code)
	assert.Equal(t, ReasonDuplicateSPV, de.Reason)

	// A cancelled SPV releases the interest for a new vehicle.
	_, err = CancelSPV(investor(1), first.ID)
	require.NoError(t, err)
	_, err = CreateSPV(investor(1), CreateSPVInput{InterestID: interest.ID, Name: "Syndicate II", TargetAmount: 10_000_000})
	require.NoError(t, err)
}

func TestSPVLifecycleForwardOnly(t *testing.T) {
	setupTestDB(t)
	deal := seedDeal(t, 1_000_000)
	interest := seedAcceptedInterest(t, deal, 1, 5_000_000)

	spv, err := CreateSPV(investor(1), CreateSPVInput{InterestID: interest.ID, Name: "Syndicate I", TargetAmount: 5_000_000})
	require.NoError(t, err)

	// Non-lead cannot activate
	_, err = ActivateSPV(investor(2), spv.ID)
	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, CodeAuthorization, de.Code)

	spv, err = ActivateSPV(investor(1), spv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SPVStatusActive, spv.Status)

	// Already active
	_, err = ActivateSPV(investor(1), spv.ID)
	de, ok = AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, CodeStateConflict, de.Code)

	// Fully funded by the lead alone, closes cleanly
	spv, err = CloseSPV(investor(1), spv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SPVStatusClosed, spv.Status)
	assert.NotNil(t, spv.ClosedAt)

	// Closed is terminal
	_, err = CancelSPV(investor(1), spv.ID)
	de, ok = AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, CodeStateConflict, de.Code)
	assert.Equal(t, ReasonSPVClosed, de.Reason)
}

func TestCloseUnderfundedBeforeDeadline(t *testing.T) {
	setupTestDB(t)
	deal := seedDeal(t, 1_000_000)
	interest := seedAcceptedInterest(t, deal, 1, 5_000_000)

	spv, err := CreateSPV(investor(1), CreateSPVInput{
		InterestID:   interest.ID,
		Name:         "Syndicate I",
		TargetAmount: 20_000_000,
		ClosesAt:     futureTime(24 * time.Hour),
	})
	require.NoError(t, err)
	_, err = ActivateSPV(investor(1), spv.ID)
	require.NoError(t, err)

	// Explicit lead close before the deadline is allowed even underfunded.
	closed, err := CloseSPV(investor(1), spv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SPVStatusClosed, closed.Status)
}

func TestCloseUnderfundedAfterDeadline(t *testing.T) {
	setupTestDB(t)
	deal := seedDeal(t, 1_000_000)
	interest := seedAcceptedInterest(t, deal, 1, 5_000_000)

	spv, err := CreateSPV(investor(1), CreateSPVInput{
		InterestID:   interest.ID,
		Name:         "Syndicate I",
		TargetAmount: 20_000_000,
		ClosesAt:     futureTime(-time.Hour),
	})
	require.NoError(t, err)
	_, err = ActivateSPV(investor(1), spv.ID)
	require.NoError(t, err)

	_, err = CloseSPV(investor(1), spv.ID)
	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, CodeStateConflict, de.Code)
	assert.Equal(t, "CloseDeadlinePassed", de.Reason)
}

func TestInterestOwnsAtMostOneLiveSPV(t *testing.T) {
	setupTestDB(t)
	deal := seedDeal(t, 1_000_000)
	interest := seedAcceptedInterest(t, deal, 1, 5_000_000)

	_, err := CreateSPV(investor(1), CreateSPVInput{InterestID: interest.ID, Name: "Syndicate I", TargetAmount: 10_000_000})
	require.NoError(t, err)

	var live int64
	require.NoError(t, dbconfig.DB.Model(&models.SPV{}).
		Where("interest_id = ? AND status <> ?", interest.ID, models.SPVStatusCancelled).
		Count(&live).Error)
	assert.Equal(t, int64(1), live)
}
