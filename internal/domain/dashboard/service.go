package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clicare/clicare/internal/domain/patient"
)

// ErrAssistantNotConfigured is returned when no model API key is set.
var ErrAssistantNotConfigured = errors.New("ai assistant is not configured")

const activityFeedSize = 5

// Analyzer is the language model behind the admin data assistant.
type Analyzer interface {
	Configured() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

// Pinger probes database health for the system status panel.
type Pinger func(ctx context.Context) error

// AdminDashboard bundles the admin landing page payload.
type AdminDashboard struct {
	Stats            *AdminStats
	RecentActivities []*Activity
	SystemStatus     SystemStatus
}

type Service struct {
	repo     Repository
	analyzer Analyzer
	ping     Pinger
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, analyzer Analyzer, ping Pinger, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		analyzer: analyzer,
		ping:     ping,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) today() string { return s.now().Format("2006-01-02") }

// dateOr falls back to today when the client sends no date filter.
func (s *Service) dateOr(date string) string {
	if date == "" {
		return s.today()
	}
	return date
}

// StaffDashboard counts a doctor's consultations, department queue load, and
// completed lab orders for a date.
func (s *Service) StaffDashboard(ctx context.Context, staffID uuid.UUID, departmentID int, date string) (*StaffStats, error) {
	date = s.dateOr(date)

	consulted, err := s.repo.CountDiagnosedToday(ctx, staffID, departmentID, date)
	if err != nil {
		return nil, err
	}
	inQueue, err := s.repo.CountActiveQueue(ctx, departmentID, date)
	if err != nil {
		return nil, err
	}
	labRequests, err := s.repo.CountCompletedLabRequests(ctx, staffID)
	if err != nil {
		return nil, err
	}

	return &StaffStats{
		MyPatientsToday: consulted + inQueue,
		TotalLabResults: labRequests,
		Breakdown: Breakdown{
			Consulted: consulted,
			InQueue:   inQueue,
			Total:     consulted + inQueue,
		},
	}, nil
}

// MyPatientsToday lists the patients a doctor diagnosed on a date, newest
// diagnosis first.
func (s *Service) MyPatientsToday(ctx context.Context, staffID uuid.UUID, departmentID int, date string) ([]*TodayPatient, error) {
	patients, err := s.repo.DiagnosedToday(ctx, staffID, departmentID, s.dateOr(date))
	if err != nil {
		return nil, err
	}
	sort.Slice(patients, func(i, j int) bool {
		return patients[i].DiagnosedAt.After(patients[j].DiagnosedAt)
	})
	return patients, nil
}

// Admin builds the admin landing page: headline counts, the recent activity
// feed, and component status. A failing activity query degrades to an empty
// feed rather than failing the page.
func (s *Service) Admin(ctx context.Context) (*AdminDashboard, error) {
	stats, err := s.repo.AdminCounts(ctx, s.today())
	if err != nil {
		return nil, err
	}

	activities, err := s.repo.RecentActivities(ctx, activityFeedSize)
	if err != nil {
		s.logger.Warn().Err(err).Msg("activity feed fetch failed")
		activities = nil
	}
	now := s.now()
	for _, a := range activities {
		a.Time = humanizeAge(now, a.At)
	}

	status := SystemStatus{Server: "online", Database: "online", Backup: "completed"}
	if s.ping != nil {
		if err := s.ping(ctx); err != nil {
			status.Database = "offline"
		}
	}

	return &AdminDashboard{
		Stats:            stats,
		RecentActivities: activities,
		SystemStatus:     status,
	}, nil
}

func humanizeAge(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d min", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hr", int(d.Hours()))
	default:
		return fmt.Sprintf("%d days", int(d.Hours()/24))
	}
}

// TimeSeries returns a zero-filled bucket series for the chart period:
// 7 days, 8 weeks, or 12 months ending now.
func (s *Service) TimeSeries(ctx context.Context, period string) ([]*TimePoint, error) {
	switch period {
	case PeriodDaily, PeriodWeekly, PeriodYearly:
	default:
		period = PeriodDaily
	}

	labels := s.bucketLabels(period)
	points, err := s.repo.TimeSeries(ctx, period, labels.since)
	if err != nil {
		return nil, err
	}

	out := make([]*TimePoint, len(labels.keys))
	for i, key := range labels.keys {
		if p, ok := points[key]; ok {
			out[i] = p
		} else {
			out[i] = &TimePoint{Date: key}
		}
	}
	return out, nil
}

type bucketLabels struct {
	since time.Time
	keys  []string
}

func (s *Service) bucketLabels(period string) bucketLabels {
	now := s.now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch period {
	case PeriodWeekly:
		// ISO weeks start on Monday, matching date_trunc('week', ...).
		monday := day.AddDate(0, 0, -int((day.Weekday()+6)%7))
		start := monday.AddDate(0, 0, -7*7)
		keys := make([]string, 8)
		for i := range keys {
			keys[i] = start.AddDate(0, 0, 7*i).Format("2006-01-02")
		}
		return bucketLabels{since: start, keys: keys}
	case PeriodYearly:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		start := first.AddDate(0, -11, 0)
		keys := make([]string, 12)
		for i := range keys {
			keys[i] = start.AddDate(0, i, 0).Format("2006-01")
		}
		return bucketLabels{since: start, keys: keys}
	default:
		start := day.AddDate(0, 0, -6)
		keys := make([]string, 7)
		for i := range keys {
			keys[i] = start.AddDate(0, 0, i).Format("2006-01-02")
		}
		return bucketLabels{since: start, keys: keys}
	}
}

// Staff returns the admin staff directory, optionally filtered.
func (s *Service) Staff(ctx context.Context, search string) ([]*StaffRow, error) {
	return s.repo.ListStaff(ctx, search)
}

// Patients returns the admin patient directory, optionally filtered.
func (s *Service) Patients(ctx context.Context, search string) ([]*patient.Patient, error) {
	return s.repo.ListPatients(ctx, search)
}

// Analyze answers an admin question about the aggregated hospital snapshot,
// optionally attaching a chart directive the model proposes.
func (s *Service) Analyze(ctx context.Context, in AnalyzeInput) (*AnalyzeResult, error) {
	if s.analyzer == nil || !s.analyzer.Configured() {
		return nil, ErrAssistantNotConfigured
	}

	raw, err := s.analyzer.Generate(ctx, buildAnalysisPrompt(in))
	if err != nil {
		return nil, fmt.Errorf("analyze data: %w", err)
	}
	return parseModelAnswer(raw), nil
}

func buildAnalysisPrompt(in AnalyzeInput) string {
	var b strings.Builder
	b.WriteString("You are the data assistant of a hospital administration dashboard.\n")
	b.WriteString("Answer using ONLY the aggregated hospital data below. ")
	b.WriteString("Never reveal or speculate about individual patients, their identities, ")
	b.WriteString("diagnoses, or contact details; refuse such requests politely.\n\n")
	b.WriteString("Respond with a single JSON object, no markdown fences:\n")
	b.WriteString(`{"textResponse": "<answer>", "chartType": "bar"|"line"|"pie"|"none", `)
	b.WriteString(`"chartData": [{"name": "<label>", "value": <number>}], "chartTitle": "<title>"}`)
	b.WriteString("\nUse chartType \"none\" and omit chartData when no chart helps.\n\n")
	b.WriteString("Hospital data:\n")
	if len(in.HospitalData) > 0 {
		b.Write(in.HospitalData)
	} else {
		b.WriteString("{}")
	}
	b.WriteString("\n\nQuestion: ")
	b.WriteString(in.Query)
	return b.String()
}

// parseModelAnswer extracts the JSON directive from the model's reply. A
// reply that is not the requested JSON becomes a chartless text answer.
func parseModelAnswer(raw string) *AnalyzeResult {
	text := strings.TrimSpace(raw)
	candidate := text
	if i := strings.Index(candidate, "{"); i >= 0 {
		if j := strings.LastIndex(candidate, "}"); j > i {
			candidate = candidate[i : j+1]
		}
	}

	var res AnalyzeResult
	if err := json.Unmarshal([]byte(candidate), &res); err == nil && res.TextResponse != "" {
		if res.ChartType == "" {
			res.ChartType = "none"
		}
		return &res
	}
	return &AnalyzeResult{TextResponse: text, ChartType: "none"}
}
