package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"dealflow/internal/models"
	"dealflow/internal/routes"
	dbconfig "dealflow/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupAPI(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	return routes.SetupRouter()
}

func seedOpenDeal(t *testing.T, minInvestment float64) *models.Deal {
	t.Helper()
	deal := &models.Deal{
		CompanyName:   "TechStartup India",
		Amount:        50_000_000,
		Valuation:     200_000_000,
		Status:        models.DealStatusOpen,
		MinInvestment: minInvestment,
	}
	require.NoError(t, dbconfig.DB.Create(deal).Error)
	return deal
}

// doJSON performs a request with the caller identity headers and decodes the
// JSON response into out (if non-nil).
func doJSON(t *testing.T, r *gin.Engine, method, path string, investorID uint, role string, body interface{}, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if investorID != 0 {
		req.Header.Set("X-Investor-ID", strconv.FormatUint(uint64(investorID), 10))
	}
	if role != "" {
		req.Header.Set("X-Investor-Role", role)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if out != nil && w.Code < 300 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w
}

func TestSubmitInterestEndpoint(t *testing.T) {
	r := setupAPI(t)
	deal := seedOpenDeal(t, 1_000_000)

	// Missing identity header
	w := doJSON(t, r, http.MethodPost, "/deal-interest", 0, "", gin.H{"deal_id": deal.ID, "amount": 2_000_000}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Below the deal minimum
	w = doJSON(t, r, http.MethodPost, "/deal-interest", 1, "", gin.H{"deal_id": deal.ID, "amount": 500_000}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errBody map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errBody))
	assert.Equal(t, "validation_error", errBody["code"])
	assert.Equal(t, "InvalidAmount", errBody["reason"])

	// Valid submission
	var interest models.DealInterest
	w = doJSON(t, r, http.MethodPost, "/deal-interest", 1, "", gin.H{"deal_id": deal.ID, "amount": 2_000_000, "notes": "strong team"}, &interest)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.InterestStatusPending, interest.Status)
	assert.Equal(t, uint(1), interest.Version)

	// Duplicate
	w = doJSON(t, r, http.MethodPost, "/deal-interest", 1, "", gin.H{"deal_id": deal.ID, "amount": 2_000_000}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDecisionEndpoint(t *testing.T) {
	r := setupAPI(t)
	deal := seedOpenDeal(t, 1_000_000)

	var interest models.DealInterest
	doJSON(t, r, http.MethodPost, "/deal-interest", 1, "", gin.H{"deal_id": deal.ID, "amount": 2_000_000}, &interest)

	path := fmt.Sprintf("/deal-interest/%d/decision", interest.ID)

	// Investor role is rejected before any mutation
	w := doJSON(t, r, http.MethodPatch, path, 1, "", gin.H{"decision": "accepted"}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var decided models.DealInterest
	w = doJSON(t, r, http.MethodPatch, path, 9, "admin", gin.H{"decision": "accepted"}, &decided)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.InterestStatusAccepted, decided.Status)
	assert.Greater(t, decided.Version, interest.Version)

	// Already decided: conflict carrying the authoritative state
	w = doJSON(t, r, http.MethodPatch, path, 9, "admin", gin.H{"decision": "rejected"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	var errBody map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errBody))
	assert.Equal(t, "state_conflict", errBody["code"])
	assert.Equal(t, "NotPending", errBody["reason"])
	assert.NotNil(t, errBody["state"])
}

func TestSyndicationFlowEndpoints(t *testing.T) {
	r := setupAPI(t)
	deal := seedOpenDeal(t, 1_000_000)

	var interest models.DealInterest
	doJSON(t, r, http.MethodPost, "/deal-interest", 1, "", gin.H{"deal_id": deal.ID, "amount": 5_000_000}, &interest)
	doJSON(t, r, http.MethodPatch, fmt.Sprintf("/deal-interest/%d/decision", interest.ID), 9, "admin", gin.H{"decision": "accepted"}, nil)

	var spv models.SPV
	w := doJSON(t, r, http.MethodPost, "/spv", 1, "", gin.H{
		"interest_id":      interest.ID,
		"name":             "TechStartup SPV 2026",
		"target_amount":    20_000_000,
		"carry_percentage": 20,
	}, &spv)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.SPVStatusPlanning, spv.Status)

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/spv/%d/activate", spv.ID), 1, "", nil, &spv)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.SPVStatusActive, spv.Status)

	// Invite two co-investors
	var m2, m3 models.SPVMembership
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/spv/%d/members", spv.ID), 1, "", gin.H{"investor_id": 2, "proposed_amount": 8_000_000}, &m2)
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/spv/%d/members", spv.ID), 1, "", gin.H{"investor_id": 3, "proposed_amount": 8_000_000}, &m3)
	require.Equal(t, http.StatusCreated, w.Code)

	memberPath := func(m models.SPVMembership) string {
		return fmt.Sprintf("/spv/%d/members/%d", spv.ID, m.ID)
	}

	// Both accept at 8M, first confirm lands, second overflows
	w = doJSON(t, r, http.MethodPatch, memberPath(m2), 2, "", gin.H{"action": "accept", "commitment_amount": 8_000_000}, &m2)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodPatch, memberPath(m3), 3, "", gin.H{"action": "accept", "commitment_amount": 8_000_000}, &m3)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPatch, memberPath(m2), 2, "", gin.H{"action": "confirm"}, &m2)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.MembershipStatusConfirmed, m2.Status)

	w = doJSON(t, r, http.MethodPatch, memberPath(m3), 3, "", gin.H{"action": "confirm"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	var errBody map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errBody))
	assert.Equal(t, "over_allocation", errBody["code"])
	assert.NotNil(t, errBody["state"])

	// Retry smaller, confirm, check progress
	w = doJSON(t, r, http.MethodPatch, memberPath(m3), 3, "", gin.H{"action": "accept", "commitment_amount": 7_000_000}, &m3)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodPatch, memberPath(m3), 3, "", gin.H{"action": "confirm"}, &m3)
	require.Equal(t, http.StatusOK, w.Code)

	var progress map[string]interface{}
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/spv/%d/progress", spv.ID), 1, "", nil, &progress)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20_000_000.0, progress["confirmed_total"])
	assert.Equal(t, 100.0, progress["percent_complete"])

	// Carry before close is a conflict, after close it distributes
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/spv/%d/carry", spv.ID), 1, "", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/spv/%d/close", spv.ID), 1, "", nil, &spv)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.SPVStatusClosed, spv.Status)

	var carry map[string]interface{}
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/spv/%d/carry", spv.ID), 1, "", nil, &carry)
	require.Equal(t, http.StatusOK, w.Code)
	entries := carry["entries"].([]interface{})
	assert.Len(t, entries, 3)
}

func TestDealCatalogReadOnly(t *testing.T) {
	r := setupAPI(t)
	seedOpenDeal(t, 1_000_000)

	var deals []models.Deal
	w := doJSON(t, r, http.MethodGet, "/deal?status=open", 1, "", nil, &deals)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, deals, 1)

	w = doJSON(t, r, http.MethodGet, "/deal/999", 1, "", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
