package jobs

import (
	"log/slog"

	"footfall/internal/database"
	"footfall/internal/sessions"
	"footfall/internal/timeframe"
)

// ReconstructJob periodically rebuilds person sessions from raw events.
type ReconstructJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
}

func NewReconstructJob(dbManager *database.DBManager, logger *slog.Logger) *ReconstructJob {
	return &ReconstructJob{
		dbManager: dbManager,
		logger:    logger,
	}
}

// Run reconstructs sessions over all stored events. The upsert keyed on
// session_id makes repeated runs converge instead of duplicating rows.
func (j *ReconstructJob) Run() error {
	result, err := sessions.Reconstruct(j.dbManager, j.logger, timeframe.AllTime())
	if err != nil {
		return err
	}

	j.logger.Info("Session reconstruction completed",
		slog.Int("sessions_processed", result.SessionsProcessed),
		slog.Int64("total_dwell_seconds", result.TotalDwellSeconds),
		slog.Int("errors", len(result.Errors)))

	return nil
}
