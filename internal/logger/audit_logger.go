// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging. Published picks and
// model promotions are externally visible, so they get a durable trail.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogPickPublished logs a pick publication event.
func (al *AuditLogger) LogPickPublished(pickID, matchID, predictionType, side string, odds, edge float64, modelVersion string, timestamp time.Time) {
	al.WithFields(logrus.Fields{
		"pick_id":         pickID,
		"match_id":        matchID,
		"prediction_type": predictionType,
		"side":            side,
		"odds":            odds,
		"edge":            edge,
		"model_version":   modelVersion,
		"timestamp":       timestamp.Unix(),
	}).Info("Pick publication recorded")
}

// LogDuplicatePick logs an attempted re-publication suppressed by storage.
func (al *AuditLogger) LogDuplicatePick(matchID, predictionType string, pickDate time.Time) {
	al.WithFields(logrus.Fields{
		"match_id":        matchID,
		"prediction_type": predictionType,
		"pick_date":       pickDate.Format("2006-01-02"),
	}).Info("Duplicate pick suppressed")
}

// LogModelPromotion logs a model version becoming current.
func (al *AuditLogger) LogModelPromotion(predictionType, oldVersion, newVersion string, validationMetrics map[string]float64) {
	al.WithFields(logrus.Fields{
		"prediction_type":    predictionType,
		"old_version":        oldVersion,
		"new_version":        newVersion,
		"validation_metrics": validationMetrics,
	}).Info("Model version promoted")
}

// LogDataImport logs a historical data import.
func (al *AuditLogger) LogDataImport(source string, rowsRead, matchesStored, rowsRejected int) {
	al.WithFields(logrus.Fields{
		"source":         source,
		"rows_read":      rowsRead,
		"matches_stored": matchesStored,
		"rows_rejected":  rowsRejected,
	}).Info("Data import recorded")
}
