package dwell

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"footfall/internal/events"
	"footfall/internal/timeframe"
)

// BreakdownKind selects how demographic dwell charts are segmented.
type BreakdownKind string

const (
	BreakdownNone      BreakdownKind = "none"
	BreakdownGender    BreakdownKind = "gender"
	BreakdownAge       BreakdownKind = "age"
	BreakdownGenderAge BreakdownKind = "gender_age"
)

// AgeOtherLabel is the display label for rows without a usable age group.
const AgeOtherLabel = "Other"

// ParseBreakdownKind validates a caller-supplied breakdown string. Empty
// means no segmentation.
func ParseBreakdownKind(s string) (BreakdownKind, error) {
	if s == "" {
		return BreakdownNone, nil
	}
	switch BreakdownKind(s) {
	case BreakdownNone, BreakdownGender, BreakdownAge, BreakdownGenderAge:
		return BreakdownKind(s), nil
	}
	return "", &AnalyticsError{Reason: fmt.Sprintf("unsupported breakdown: %q", s)}
}

// DemographicReport is a demographic dwell breakdown.
type DemographicReport struct {
	Breakdown BreakdownKind `json:"breakdown"`
	Groups    []GroupStats  `json:"groups"`
	Summary   Stats         `json:"summary"`
}

// DemographicBreakdown partitions dwell values by demographic segment.
//
// Gender-bearing breakdowns cover only the closed set {male, female}; rows
// with any other gender value are excluded from those charts entirely. Age
// breakdowns exclude inconclusive estimates and label missing age groups as
// "Other". The summary covers exactly the rows that made it into a group, so
// chart totals always match their segments.
func DemographicBreakdown(db *gorm.DB, logger *slog.Logger, w timeframe.Window, kind BreakdownKind) (*DemographicReport, error) {
	if _, err := ParseBreakdownKind(string(kind)); err != nil {
		return nil, err
	}

	if w.IsZero() {
		w = timeframe.TrailingDays(time.Now().UTC(), defaultWindowDays)
	}

	var rows []events.AppearanceEvent
	err := events.ScopeWindow(db.Model(&events.AppearanceEvent{}), w).
		Order("started_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events for breakdown: %w", err)
	}

	partitions := make(map[string][]int64)
	var included []int64
	for i := range rows {
		key, ok := breakdownKey(kind, &rows[i])
		if !ok {
			continue
		}
		partitions[key] = append(partitions[key], rows[i].DwellSeconds)
		included = append(included, rows[i].DwellSeconds)
	}

	keys := make([]string, 0, len(partitions))
	for key := range partitions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	report := &DemographicReport{
		Breakdown: kind,
		Groups:    make([]GroupStats, 0, len(keys)),
		Summary:   Summarize(included),
	}
	for _, key := range keys {
		report.Groups = append(report.Groups, GroupStats{Key: key, Stats: Summarize(partitions[key])})
	}

	logger.Debug("Computed demographic breakdown",
		slog.String("breakdown", string(kind)),
		slog.Int("groups", len(report.Groups)))

	return report, nil
}

func breakdownKey(kind BreakdownKind, ev *events.AppearanceEvent) (string, bool) {
	switch kind {
	case BreakdownNone:
		return "all", true
	case BreakdownGender:
		return genderKey(ev.Gender)
	case BreakdownAge:
		return ageKey(ev.AgeGroup)
	case BreakdownGenderAge:
		gender, ok := genderKey(ev.Gender)
		if !ok {
			return "", false
		}
		age, ok := ageKey(ev.AgeGroup)
		if !ok {
			return "", false
		}
		return gender + "|" + age, true
	}
	return "", false
}

func genderKey(gender string) (string, bool) {
	g := strings.ToLower(gender)
	if g != "male" && g != "female" {
		return "", false
	}
	return g, true
}

func ageKey(ageGroup string) (string, bool) {
	a := strings.ToLower(ageGroup)
	if a == events.AgeInconclusive {
		return "", false
	}
	if a == "" || a == events.DemographicOther {
		return AgeOtherLabel, true
	}
	return ageGroup, true
}
