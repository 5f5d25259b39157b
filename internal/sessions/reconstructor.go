package sessions

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"footfall/internal/events"
	"footfall/internal/timeframe"
)

// Result summarizes one reconstruction run.
type Result struct {
	SessionsProcessed   int      `json:"sessions_processed"`
	TotalDwellSeconds   int64    `json:"total_dwell_seconds"`
	AverageDwellSeconds float64  `json:"average_dwell_seconds"`
	MedianDwellSeconds  int64    `json:"median_dwell_seconds"`
	MaxDwellSeconds     int64    `json:"max_dwell_seconds"`
	MinDwellSeconds     int64    `json:"min_dwell_seconds"`
	Errors              []string `json:"errors"`
}

// candidate pairs a session with the event span its back-reference covers.
type candidate struct {
	session Session
	// refEventID is set for single-event appearance sessions; zero means the
	// back-reference targets the [refFrom, refTo] span instead.
	refEventID uint
	refFrom    time.Time
	refTo      time.Time
}

// Reconstruct derives sessions from entry/exit/appearance events inside the
// window and persists them. An empty window means all available data.
//
// Entry and exit events of the same (person, camera) pair are matched
// greedily in timestamp order: exits that precede the earliest unmatched
// entry are dropped as orphans, an exit at exactly the entry's timestamp
// forms a valid zero-length session, and trailing entries with no exit are
// left for a later run to match. Appearance events already carry their own
// start and end and become single-event sessions directly.
//
// Reconstruction is idempotent: session identifiers are derived from
// (person, camera, entry time), and re-runs upsert with last-computed values
// winning. All writes for a run happen in one transaction; a storage failure
// returns a ProcessingError and commits nothing.
func Reconstruct(dbManager cartridge.DBManager, logger *slog.Logger, w timeframe.Window) (*Result, error) {
	db := dbManager.GetConnection()

	rows, err := events.EventsForReconstruction(db, w)
	if err != nil {
		return nil, &ProcessingError{Stage: "fetch", Err: err}
	}

	result := &Result{Errors: []string{}}
	if len(rows) == 0 {
		logger.Info("No events to reconstruct")
		return result, nil
	}

	candidates, matchErrors := matchSessions(logger, rows)
	result.Errors = append(result.Errors, matchErrors...)

	if len(candidates) > 0 {
		err = sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
			for i := range candidates {
				if err := upsertSession(tx, &candidates[i].session); err != nil {
					return err
				}
				if err := applyBackReference(tx, &candidates[i]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, &ProcessingError{Stage: "store", Err: err}
		}
	}

	summarize(result, candidates)

	logger.Info("Reconstruction completed",
		slog.Int("sessions", result.SessionsProcessed),
		slog.Int64("total_dwell_seconds", result.TotalDwellSeconds),
		slog.Int("errors", len(result.Errors)))

	return result, nil
}

// matchSessions walks events already ordered by (person_id, camera_id,
// started_at, id) and produces session candidates per pair group.
func matchSessions(logger *slog.Logger, rows []events.AppearanceEvent) ([]candidate, []string) {
	var candidates []candidate
	var errs []string

	start := 0
	for start < len(rows) {
		end := start
		for end < len(rows) &&
			rows[end].PersonID == rows[start].PersonID &&
			rows[end].CameraID == rows[start].CameraID {
			end++
		}

		group := rows[start:end]
		candidates = append(candidates, matchGroup(logger, group, &errs)...)
		start = end
	}

	return candidates, errs
}

func matchGroup(logger *slog.Logger, group []events.AppearanceEvent, errs *[]string) []candidate {
	var entries, exits []events.AppearanceEvent
	var out []candidate

	for _, ev := range group {
		if ev.StartedAt.IsZero() {
			*errs = append(*errs, fmt.Sprintf("event %d: missing start timestamp", ev.ID))
			continue
		}

		switch ev.EventType {
		case events.EventTypeEntry:
			entries = append(entries, ev)
		case events.EventTypeExit:
			exits = append(exits, ev)
		case events.EventTypeAppearance:
			out = append(out, appearanceCandidate(ev))
		}
	}

	i, j := 0, 0
	for i < len(entries) && j < len(exits) {
		entry, exit := entries[i], exits[j]

		// An exit before the earliest unmatched entry has no plausible
		// partner in this window.
		if exit.StartedAt.Before(entry.StartedAt) {
			logger.Debug("Dropping orphan exit",
				slog.String("person_id", exit.PersonID),
				slog.String("camera_id", exit.CameraID),
				slog.Time("exit_time", exit.StartedAt))
			j++
			continue
		}

		exitTime := exit.StartedAt
		out = append(out, candidate{
			session: Session{
				SessionID:    BuildSessionID(entry.PersonID, entry.CameraID, entry.StartedAt),
				PersonID:     entry.PersonID,
				CameraID:     entry.CameraID,
				EntryTime:    entry.StartedAt,
				ExitTime:     &exitTime,
				DwellSeconds: wholeSeconds(entry.StartedAt, exitTime),
			},
			refFrom: entry.StartedAt,
			refTo:   exitTime,
		})
		i++
		j++
	}

	// Entries past the last exit stay unmatched; a later run over a wider
	// window can still pair them.
	if i < len(entries) {
		logger.Debug("Unmatched trailing entries",
			slog.String("person_id", entries[i].PersonID),
			slog.String("camera_id", entries[i].CameraID),
			slog.Int("count", len(entries)-i))
	}

	return out
}

func appearanceCandidate(ev events.AppearanceEvent) candidate {
	s := Session{
		SessionID:    BuildSessionID(ev.PersonID, ev.CameraID, ev.StartedAt),
		PersonID:     ev.PersonID,
		CameraID:     ev.CameraID,
		EntryTime:    ev.StartedAt,
		ExitTime:     ev.EndedAt,
		DwellSeconds: ev.DwellSeconds,
	}
	if ev.EndedAt != nil {
		s.DwellSeconds = wholeSeconds(ev.StartedAt, *ev.EndedAt)
	}
	return candidate{session: s, refEventID: ev.ID}
}

// wholeSeconds is floor(to - from) in seconds, clamped non-negative.
func wholeSeconds(from, to time.Time) int64 {
	d := to.Sub(from) / time.Second
	if d < 0 {
		return 0
	}
	return int64(d)
}

func upsertSession(tx *gorm.DB, s *Session) error {
	err := tx.Exec(`
        INSERT INTO person_sessions (session_id, person_id, camera_id, entry_time, exit_time, dwell_seconds, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(session_id) DO UPDATE SET
            exit_time = excluded.exit_time,
            dwell_seconds = excluded.dwell_seconds
    `, s.SessionID, s.PersonID, s.CameraID, s.EntryTime, s.ExitTime, s.DwellSeconds, time.Now().UTC()).Error
	if err != nil {
		return fmt.Errorf("failed to upsert session %s: %w", s.SessionID, err)
	}
	return nil
}

// applyBackReference stamps the originating events with the session they
// ended up in. Idempotent; re-running writes the same values. Appearance
// rows are excluded from span updates: they form their own sessions and
// keep their own dwell even when they fall inside a pair's span.
func applyBackReference(tx *gorm.DB, c *candidate) error {
	var err error
	if c.refEventID != 0 {
		err = tx.Model(&events.AppearanceEvent{}).
			Where("id = ?", c.refEventID).
			Updates(map[string]any{
				"session_id":    c.session.SessionID,
				"dwell_seconds": c.session.DwellSeconds,
			}).Error
	} else {
		err = tx.Model(&events.AppearanceEvent{}).
			Where("person_id = ? AND camera_id = ? AND started_at >= ? AND started_at <= ? AND event_type <> ?",
				c.session.PersonID, c.session.CameraID, c.refFrom, c.refTo, events.EventTypeAppearance).
			Updates(map[string]any{
				"session_id":    c.session.SessionID,
				"dwell_seconds": c.session.DwellSeconds,
			}).Error
	}
	if err != nil {
		return fmt.Errorf("failed to back-reference session %s: %w", c.session.SessionID, err)
	}
	return nil
}

func summarize(result *Result, candidates []candidate) {
	result.SessionsProcessed = len(candidates)
	if len(candidates) == 0 {
		return
	}

	values := make([]int64, len(candidates))
	for i := range candidates {
		values[i] = candidates[i].session.DwellSeconds
	}
	sort.Slice(values, func(a, b int) bool { return values[a] < values[b] })

	var total int64
	for _, v := range values {
		total += v
	}

	result.TotalDwellSeconds = total
	result.AverageDwellSeconds = float64(total) / float64(len(values))
	// Positional median: the lower of the two middle elements for even counts.
	result.MedianDwellSeconds = values[(len(values)-1)/2]
	result.MinDwellSeconds = values[0]
	result.MaxDwellSeconds = values[len(values)-1]
}
