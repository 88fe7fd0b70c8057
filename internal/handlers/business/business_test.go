package business

import (
	"testing"
	"time"

	"dealflow/internal/models"
	dbconfig "dealflow/pkg/config"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB points the package at a fresh in-memory database. A single open
// connection keeps the memory database alive and serializes transactions the
// same way a single-writer store would.
func setupTestDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Deal{},
		&models.DealInterest{},
		&models.SPV{},
		&models.SPVMembership{},
		&models.AuditEvent{},
	))

	dbconfig.DB = db
}

func seedDeal(t *testing.T, minInvestment float64) *models.Deal {
	t.Helper()
	deal := &models.Deal{
		CompanyName:   "TechStartup India",
		Amount:        50_000_000,
		Valuation:     200_000_000,
		Sector:        "Technology",
		Stage:         "Series A",
		Status:        models.DealStatusOpen,
		MinInvestment: minInvestment,
	}
	require.NoError(t, dbconfig.DB.Create(deal).Error)
	return deal
}

func admin() Caller {
	return Caller{InvestorID: 99, Role: RoleAdmin}
}

func investor(id uint) Caller {
	return Caller{InvestorID: id, Role: RoleInvestor}
}

// seedAcceptedInterest submits and accepts an interest through the real
// operations so every test walks the production paths.
func seedAcceptedInterest(t *testing.T, deal *models.Deal, investorID uint, amount float64) *models.DealInterest {
	t.Helper()
	interest, err := SubmitInterest(investor(investorID), deal.ID, amount, "")
	require.NoError(t, err)
	interest, err = DecideInterest(admin(), interest.ID, models.InterestStatusAccepted)
	require.NoError(t, err)
	return interest
}

// seedActiveSPV builds an activated SPV with a confirmed lead commitment.
func seedActiveSPV(t *testing.T, deal *models.Deal, leadID uint, leadAmount, target float64) *models.SPV {
	t.Helper()
	interest := seedAcceptedInterest(t, deal, leadID, leadAmount)
	spv, err := CreateSPV(investor(leadID), CreateSPVInput{
		InterestID:      interest.ID,
		Name:            "Syndicate I",
		TargetAmount:    target,
		CarryPercentage: 20,
	})
	require.NoError(t, err)
	spv, err = ActivateSPV(investor(leadID), spv.ID)
	require.NoError(t, err)
	return spv
}

// pendingMember invites an investor and accepts the invite at amount.
func pendingMember(t *testing.T, spv *models.SPV, leadID, investorID uint, amount float64) *models.SPVMembership {
	t.Helper()
	m, err := InviteMember(investor(leadID), spv.ID, investorID, amount)
	require.NoError(t, err)
	m, err = RespondToInvite(investor(investorID), m.ID, true, amount)
	require.NoError(t, err)
	return m
}

func futureTime(d time.Duration) *time.Time {
	ts := time.Now().Add(d).UTC()
	return &ts
}
