package seeder

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"footfall/internal/events"
	"footfall/internal/sessions"
	"footfall/internal/timeframe"
)

// Seeder generates synthetic camera events for development and demos.
type Seeder struct {
	DBManager  cartridge.DBManager
	Logger     *slog.Logger
	EventCount int
}

// NewSeeder creates a new seeder instance
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, eventCount int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DBManager:  dbManager,
		Logger:     logger,
		EventCount: eventCount,
	}
}

type cameraProfile struct {
	id          string
	description string
	group       string
	zone        string
	// weight controls how much traffic this camera receives
	weight int
}

var cameras = []cameraProfile{
	{id: "cam-entrance", description: "Main Entrance", group: "ground-floor", zone: "entrance", weight: 5},
	{id: "cam-checkout", description: "Checkout Area", group: "ground-floor", zone: "checkout", weight: 3},
	{id: "cam-electronics", description: "Electronics Section", group: "first-floor", zone: "electronics", weight: 2},
	{id: "cam-apparel", description: "Apparel Section", group: "first-floor", zone: "apparel", weight: 2},
	{id: "cam-cafe", description: "Cafe Corner", group: "ground-floor", zone: "cafe", weight: 1},
}

var genders = []string{"male", "female"}

var ageGroups = []string{"18-24", "25-34", "35-44", "45-54", "55-64", "65+"}

const seedBatchSize = 500

// Run seeds the database with visits spread over the trailing 30 days
// and reconstructs sessions from them.
func (s *Seeder) Run(ctx context.Context) error {
	start := time.Now()
	s.Logger.Info("Seeding camera events...", slog.Int("eventCount", s.EventCount))

	if err := s.generateVisits(ctx, 30); err != nil {
		return fmt.Errorf("failed to generate visits: %w", err)
	}

	s.Logger.Info("Reconstructing sessions from seeded events...")
	result, err := sessions.Reconstruct(s.DBManager, s.Logger, timeframe.AllTime())
	if err != nil {
		return fmt.Errorf("failed to reconstruct sessions: %w", err)
	}

	s.Logger.Info("Seeding completed",
		slog.Int("sessions", result.SessionsProcessed),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// generateVisits produces entry/exit pairs (and the occasional standalone
// appearance) for random persons during opening hours.
func (s *Seeder) generateVisits(ctx context.Context, days int) error {
	personCount := s.EventCount / 4
	if personCount < 1 {
		personCount = 1
	}

	weighted := weightedCameras()
	batch := make([]*events.AppearanceEvent, 0, seedBatchSize)
	generated := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := sqlite.PerformWrite(s.Logger, s.DBManager.GetConnection(), func(tx *gorm.DB) error {
			return events.InsertBatch(tx, batch)
		})
		if err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for generated < s.EventCount {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		personID := fmt.Sprintf("person-%04d", rand.IntN(personCount)+1)
		gender := genders[rand.IntN(len(genders))]
		ageGroup := ageGroups[rand.IntN(len(ageGroups))]

		camera := weighted[rand.IntN(len(weighted))]
		entryAt := randomVisitTime(days)

		// Dwell between 30 seconds and 45 minutes, skewed short
		dwell := 30 + rand.IntN(300)
		if rand.IntN(4) == 0 {
			dwell += rand.IntN(2400)
		}
		exitAt := entryAt.Add(time.Duration(dwell) * time.Second)

		if rand.IntN(10) == 0 {
			// Standalone appearance with a precomputed dwell
			batch = append(batch, &events.AppearanceEvent{
				PersonID:          personID,
				CameraID:          camera.id,
				CameraDescription: camera.description,
				CameraGroup:       camera.group,
				ZoneName:          camera.zone,
				EventType:         events.EventTypeAppearance,
				StartedAt:         entryAt,
				EndedAt:           &exitAt,
				DwellSeconds:      int64(dwell),
				Gender:            gender,
				AgeGroup:          ageGroup,
				CreatedAt:         time.Now().UTC(),
			})
			generated++
		} else {
			for _, eventType := range []events.EventType{events.EventTypeEntry, events.EventTypeExit} {
				startedAt := entryAt
				if eventType == events.EventTypeExit {
					startedAt = exitAt
				}
				batch = append(batch, &events.AppearanceEvent{
					PersonID:          personID,
					CameraID:          camera.id,
					CameraDescription: camera.description,
					CameraGroup:       camera.group,
					ZoneName:          camera.zone,
					EventType:         eventType,
					StartedAt:         startedAt,
					Gender:            gender,
					AgeGroup:          ageGroup,
					CreatedAt:         time.Now().UTC(),
				})
				generated++
			}
		}

		if len(batch) >= seedBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	return flush()
}

// randomVisitTime picks a moment during opening hours in the trailing
// day range, weighted toward the afternoon peak.
func randomVisitTime(days int) time.Time {
	day := time.Now().UTC().AddDate(0, 0, -rand.IntN(days))

	hour := timeframe.OpeningHour + rand.IntN(timeframe.ClosingHour-timeframe.OpeningHour)
	if rand.IntN(3) == 0 {
		hour = 14 + rand.IntN(5)
	}

	return time.Date(day.Year(), day.Month(), day.Day(),
		hour, rand.IntN(60), rand.IntN(60), 0, time.UTC)
}

func weightedCameras() []cameraProfile {
	var out []cameraProfile
	for _, c := range cameras {
		for i := 0; i < c.weight; i++ {
			out = append(out, c)
		}
	}
	return out
}
