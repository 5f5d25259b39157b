package testsupport

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/cache"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"footfall/internal/analytics"
	"footfall/internal/config"
	"footfall/internal/events"
	"footfall/internal/sessions"
)

// testDBCache caches test databases by test name to allow multiple calls
// within the same test to share the same database
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager with footfall's interface
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

// Ensure TestDBManager implements cartridge.DBManager
var _ cartridge.DBManager = (*TestDBManager)(nil)

// allModels returns all footfall models for migration
func allModels() []any {
	return []any{
		&cache.CacheRecord{},
		&events.AppearanceEvent{},
		&sessions.Session{},
		&analytics.CacheEntry{},
	}
}

// SetupTestDB creates a test database with all footfall models migrated.
// Uses a named in-memory database with cache=shared to allow multiple
// connections to share the same database within a test. Caches the database
// by test name so multiple calls within the same test return the same
// database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testName := t.Name()

	// Use root test name for caching to handle closure issues where
	// setup functions capture the outer t while t.Run has subtest t
	rootName := testName
	if idx := strings.Index(testName, "/"); idx > 0 {
		rootName = testName[:idx]
	}

	// Check cache first
	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	// Create a unique named in-memory database for each test
	// cache=shared allows multiple connections to the same database
	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	// Apply SQLite pragmas
	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	// Auto-migrate models
	if err := db.AutoMigrate(allModels()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	// Cache the database
	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	// Register cleanup
	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager creates a test DB manager using cartridge's testsupport
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	cfg := config.GetConfig()

	// SAFETY CHECK: Ensure we're in test environment
	if cfg.Environment != config.Test {
		t.Fatalf("CRITICAL: Tests must run in test environment! Current: %s. Set FOOTFALL_ENV=test", cfg.Environment)
	}

	db := SetupTestDB(t)
	logger := GetLogger()
	dbManager := NewTestDBManager(db)

	return dbManager, logger
}

// CleanAllTables clears all non-system tables in the database
func CleanAllTables(db *gorm.DB) {
	var tableNames []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tableNames)

	var tables []string
	for _, name := range tableNames {
		if name != "migrations" && name != "schema_migrations" {
			tables = append(tables, name)
		}
	}

	if len(tables) == 0 {
		return
	}

	db.Exec("PRAGMA foreign_keys = OFF")
	defer db.Exec("PRAGMA foreign_keys = ON")

	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			tx.Exec("DELETE FROM " + table)
			tx.Exec("DELETE FROM sqlite_sequence WHERE name=?", table)
		}
		return nil
	})
}

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// EventOption mutates an event fixture before insertion.
type EventOption func(*events.AppearanceEvent)

// WithDemographics sets the demographic attributes on an event fixture.
func WithDemographics(gender, ageGroup string) EventOption {
	return func(ev *events.AppearanceEvent) {
		ev.Gender = gender
		ev.AgeGroup = ageGroup
	}
}

// WithCameraDescription sets the human-facing camera name.
func WithCameraDescription(desc string) EventOption {
	return func(ev *events.AppearanceEvent) {
		ev.CameraDescription = desc
	}
}

// CreateEntryExitPair inserts a matching entry and exit event for a person
// at a camera.
func CreateEntryExitPair(t *testing.T, db *gorm.DB, personID, cameraID string, entryAt, exitAt time.Time, opts ...EventOption) {
	t.Helper()
	CreateEvent(t, db, personID, cameraID, events.EventTypeEntry, entryAt, opts...)
	CreateEvent(t, db, personID, cameraID, events.EventTypeExit, exitAt, opts...)
}

// CreateEvent inserts a single event with sensible defaults.
func CreateEvent(t *testing.T, db *gorm.DB, personID, cameraID string, eventType events.EventType, startedAt time.Time, opts ...EventOption) *events.AppearanceEvent {
	t.Helper()

	ev := &events.AppearanceEvent{
		PersonID:          personID,
		CameraID:          cameraID,
		CameraDescription: "Camera " + cameraID,
		EventType:         eventType,
		StartedAt:         startedAt,
		AgeGroup:          events.DemographicOther,
		Gender:            events.DemographicOther,
		CreatedAt:         time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(ev)
	}
	require.NoError(t, db.Create(ev).Error)
	return ev
}

// CreateAppearanceEvent inserts an appearance event carrying its own start,
// end, and precomputed dwell.
func CreateAppearanceEvent(t *testing.T, db *gorm.DB, personID, cameraID string, startedAt, endedAt time.Time, opts ...EventOption) *events.AppearanceEvent {
	t.Helper()

	dwell := int64(endedAt.Sub(startedAt) / time.Second)
	if dwell < 0 {
		dwell = 0
	}
	ev := &events.AppearanceEvent{
		PersonID:          personID,
		CameraID:          cameraID,
		CameraDescription: "Camera " + cameraID,
		EventType:         events.EventTypeAppearance,
		StartedAt:         startedAt,
		EndedAt:           &endedAt,
		DwellSeconds:      dwell,
		AgeGroup:          events.DemographicOther,
		Gender:            events.DemographicOther,
		CreatedAt:         time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(ev)
	}
	require.NoError(t, db.Create(ev).Error)
	return ev
}

// CreateSession inserts a reconstructed session directly, for tests that
// exercise aggregation without running the reconstructor.
func CreateSession(t *testing.T, db *gorm.DB, personID, cameraID string, entryAt time.Time, dwellSeconds int64) *sessions.Session {
	t.Helper()

	exitAt := entryAt.Add(time.Duration(dwellSeconds) * time.Second)
	s := &sessions.Session{
		SessionID:    sessions.BuildSessionID(personID, cameraID, entryAt),
		PersonID:     personID,
		CameraID:     cameraID,
		EntryTime:    entryAt,
		ExitTime:     &exitAt,
		DwellSeconds: dwellSeconds,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, db.Create(s).Error)
	return s
}

// CreateTestApp creates a test Fiber app with all API routes mounted.
func CreateTestApp(t *testing.T, db *gorm.DB, mount func(*cartridge.Server)) *fiber.App {
	t.Helper()

	dbManager := NewTestDBManager(db)
	appConfig := config.GetConfig()
	appConfig.Environment = config.Test

	cfg := cartridge.DefaultServerConfig()
	cfg.Config = appConfig
	cfg.Logger = GetLogger()
	cfg.DBManager = dbManager
	// Mirror cartridge's testsupport.NewTestServer: httptest requests carry
	// no Sec-Fetch-Site header, so the CSRF middleware would reject them.
	cfg.EnableSecFetchSite = false

	srv, err := cartridge.NewServer(cfg)
	require.NoError(t, err)

	mount(srv)
	return srv.App()
}
