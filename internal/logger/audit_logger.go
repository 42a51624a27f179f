// Package logger provides audit logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging for data changes.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogDatasetImport records a committed dataset import.
func (al *AuditLogger) LogDatasetImport(source, filename string, uploadID int64, games, odds, modelRows int) {
	al.WithFields(logrus.Fields{
		"event_type":      "dataset_import",
		"source":          source,
		"filename":        filename,
		"upload_id":       uploadID,
		"games_inserted":  games,
		"odds_inserted":   odds,
		"models_inserted": modelRows,
	}).Info("Dataset import recorded")
}

// LogImportRejected records an import that was rolled back.
func (al *AuditLogger) LogImportRejected(source string, err error) {
	al.WithFields(logrus.Fields{
		"event_type": "dataset_import_rejected",
		"source":     source,
	}).WithError(err).Warn("Dataset import rejected")
}
