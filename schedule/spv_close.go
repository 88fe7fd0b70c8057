package main

import (
	"os"
	"time"

	"dealflow/internal/handlers/business"
	"dealflow/internal/models"
	dbconfig "dealflow/pkg/config"

	"github.com/robfig/cron/v3"
	logger "github.com/sirupsen/logrus"
)

// systemCaller is the scheduler's identity for lifecycle transitions.
var systemCaller = business.Caller{InvestorID: 0, Role: business.RoleAdmin}

// CloseFundedSPVs closes every active SPV whose confirmed total has reached
// its target, and flags underfunded SPVs that have sailed past their deadline
// for the lead to deal with.
func CloseFundedSPVs() error {
	var spvs []models.SPV
	if err := dbconfig.DB.Where("status = ?", models.SPVStatusActive).Find(&spvs).Error; err != nil {
		logger.Errorf("> failed to list active SPVs: %v", err)
		return err
	}

	now := time.Now()
	for _, spv := range spvs {
		progress, err := business.GetProgress(spv.ID)
		if err != nil {
			logger.Errorf("> failed to read progress for spv %d: %v", spv.ID, err)
			continue
		}

		if progress.ConfirmedTotal >= spv.TargetAmount {
			if _, err := business.CloseSPV(systemCaller, spv.ID); err != nil {
				// A racing lead action may have closed or cancelled it already.
				logger.Warnf("> auto-close of spv %d did not apply: %v", spv.ID, err)
				continue
			}
			logger.Infof("> spv %d fully funded at %.2f, closed", spv.ID, progress.ConfirmedTotal)
			continue
		}

		if spv.ClosesAt != nil && now.After(*spv.ClosesAt) {
			logger.Warnf("> spv %d is past its close deadline at %.1f%% funded", spv.ID, progress.PercentComplete)
		}
	}
	return nil
}

func main() {
	os.MkdirAll("logs", 0755)
	file, err := os.OpenFile("logs/spv_close.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err == nil {
		logger.SetOutput(file)
	} else {
		logger.Warn("cannot open log file, logging to stdout")
	}

	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetLevel(logger.InfoLevel)

	dbconfig.InitDB()
	logger.Info("> database connection initialized")

	if os.Getenv("RABBITMQ_HOST") != "" {
		dbconfig.InitRabbitMQ()
		logger.Info("> RabbitMQ initialized")
	}

	c := cron.New(cron.WithSeconds())

	// Every minute
	_, err = c.AddFunc("0 * * * * *", func() {
		if err := CloseFundedSPVs(); err != nil {
			logger.Errorf("> auto-close sweep failed: %v", err)
		}
	})
	if err != nil {
		logger.Fatalf("> failed to register cron job: %v", err)
	}

	logger.Info("> auto-close job scheduled every minute")
	c.Start()

	select {}
}
