package main

import (
	"encoding/json"

	"dealflow/internal/handlers/business"
	"dealflow/internal/models"
	"dealflow/pkg/config"

	logrus "github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	// Initialize database
	config.InitDB()

	// Initialize RabbitMQ
	config.InitRabbitMQ()
	defer config.RabbitMQ.Close()

	// Create consumer for the syndication event queue
	msgConsumer, err := config.NewConsumer(business.EventQueue)
	if err != nil {
		logrus.Fatal("Failed to create consumer: ", err)
	}
	defer msgConsumer.Close()

	logrus.Info("Audit worker started, waiting for events...")

	// Persist every state transition as an audit row. Consumption is
	// at-least-once; a failed write is nacked and redelivered.
	err = msgConsumer.Consume(func(msg []byte) error {
		var evt business.Event
		if err := json.Unmarshal(msg, &evt); err != nil {
			logrus.Errorf("Failed to unmarshal event: %v", err)
			return err
		}

		payload, err := json.Marshal(evt.Payload)
		if err != nil {
			logrus.Errorf("Failed to re-marshal event payload: %v", err)
			return err
		}

		record := models.AuditEvent{
			EventType:  evt.EventType,
			EntityType: evt.EntityType,
			EntityID:   evt.EntityID,
			ActorID:    evt.ActorID,
			Payload:    payload,
		}
		if err := config.DB.Create(&record).Error; err != nil {
			logrus.Errorf("Failed to persist audit event %s: %v", evt.EventType, err)
			return err
		}

		logrus.Infof("Recorded %s for %s %d", evt.EventType, evt.EntityType, evt.EntityID)
		return nil
	})
	if err != nil {
		logrus.Fatal("Consumer stopped: ", err)
	}
}
