package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clicare/clicare/internal/domain/staff"
	"github.com/clicare/clicare/internal/platform/auth"
)

type staffStub struct {
	doctor *staff.Staff
}

func (s *staffStub) GetStaffByStaffID(_ context.Context, staffID string) (*staff.Staff, error) {
	if s.doctor != nil && s.doctor.StaffID == staffID {
		return s.doctor, nil
	}
	return nil, staff.ErrStaffNotFound
}
func (s *staffStub) GetStaffByID(_ context.Context, _ uuid.UUID) (*staff.Staff, error) {
	return s.doctor, nil
}
func (s *staffStub) FirstDoctorInDepartment(_ context.Context, _ int) (*staff.Staff, error) {
	return s.doctor, nil
}
func (s *staffStub) GetAdminByAdminID(_ context.Context, _ string) (*staff.Admin, error) {
	return nil, staff.ErrAdminNotFound
}

type handlerFixture struct {
	e        *echo.Echo
	h        *Handler
	repo     *mockRepo
	analyzer *fakeAnalyzer
	doctor   *staff.Staff
}

func newHandlerFixture() *handlerFixture {
	repo := &mockRepo{adminStats: &AdminStats{}, series: map[string]*TimePoint{}}
	analyzer := &fakeAnalyzer{configured: true, reply: `{"textResponse":"ok","chartType":"none"}`}
	svc := newTestService(repo, analyzer, func(context.Context) error { return nil })
	doctor := &staff.Staff{
		ID:             uuid.New(),
		StaffID:        "DOC001",
		Name:           "Dr. Maria Santos",
		Role:           "Doctor",
		Specialization: "Cardiology",
		DepartmentID:   3,
	}
	h := NewHandler(svc, &staffStub{doctor: doctor}, zerolog.Nop())
	return &handlerFixture{e: echo.New(), h: h, repo: repo, analyzer: analyzer, doctor: doctor}
}

func (f *handlerFixture) doctorContext(req *http.Request, rec *httptest.ResponseRecorder) echo.Context {
	c := f.e.NewContext(req, rec)
	c.Set(auth.ClaimsKey, &auth.Claims{Type: auth.TokenTypeHealthcare, StaffID: "DOC001"})
	return c
}

func (f *handlerFixture) adminContext(req *http.Request, rec *httptest.ResponseRecorder) echo.Context {
	c := f.e.NewContext(req, rec)
	c.Set(auth.ClaimsKey, &auth.Claims{Type: auth.TokenTypeAdmin, AdminID: "ADM001"})
	return c
}

func (f *handlerFixture) patientContext(req *http.Request, rec *httptest.ResponseRecorder) echo.Context {
	c := f.e.NewContext(req, rec)
	c.Set(auth.ClaimsKey, &auth.Claims{Type: auth.TokenTypeOutpatient, PatientID: "PAT123456001"})
	return c
}

func TestStaffStatsHandler(t *testing.T) {
	f := newHandlerFixture()
	f.repo.consulted = 4
	f.repo.inQueue = 2
	f.repo.labRequests = 9

	req := httptest.NewRequest(http.MethodGet, "/api/healthcare/dashboard-stats", nil)
	rec := httptest.NewRecorder()
	if err := f.h.staffStats(f.doctorContext(req, rec)); err != nil {
		t.Fatalf("staffStats: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success    bool       `json:"success"`
		Stats      StaffStats `json:"stats"`
		Department struct {
			ID             int    `json:"id"`
			Specialization string `json:"specialization"`
		} `json:"department"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Success || resp.Stats.MyPatientsToday != 6 || resp.Stats.TotalLabResults != 9 {
		t.Errorf("stats = %+v", resp.Stats)
	}
	if resp.Department.ID != 3 || resp.Department.Specialization != "Cardiology" {
		t.Errorf("department = %+v", resp.Department)
	}
}

func TestStaffStatsHandlerRejectsPatientToken(t *testing.T) {
	f := newHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/healthcare/dashboard-stats", nil)
	rec := httptest.NewRecorder()
	if err := f.h.staffStats(f.patientContext(req, rec)); err != nil {
		t.Fatalf("staffStats: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestMyPatientsTodayHandler(t *testing.T) {
	f := newHandlerFixture()
	f.repo.todayRows = []*TodayPatient{
		{PatientID: "PAT1", Name: "Juan Dela Cruz", DiagnosedAt: testNow.Add(-time.Hour)},
		{PatientID: "PAT2", Name: "Ana Reyes", DiagnosedAt: testNow.Add(-10 * time.Minute)},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/healthcare/my-patients-today", nil)
	rec := httptest.NewRecorder()
	if err := f.h.myPatientsToday(f.doctorContext(req, rec)); err != nil {
		t.Fatalf("myPatientsToday: %v", err)
	}

	var resp struct {
		Success    bool            `json:"success"`
		Patients   []*TodayPatient `json:"patients"`
		TotalToday int             `json:"totalToday"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.TotalToday != 2 || len(resp.Patients) != 2 {
		t.Fatalf("totalToday = %d, patients = %d", resp.TotalToday, len(resp.Patients))
	}
	if resp.Patients[0].PatientID != "PAT2" {
		t.Errorf("first patient = %s, want PAT2 (newest diagnosis)", resp.Patients[0].PatientID)
	}
}

func TestAdminStatsHandler(t *testing.T) {
	f := newHandlerFixture()
	f.repo.adminStats = &AdminStats{TotalRegisteredPatients: 120, OutPatientToday: 9, ActiveConsultants: 6, AppointmentsToday: 14}
	f.repo.activities = []*Activity{
		{ID: 1, Action: "New patient registration", User: "Juan Dela Cruz", Status: "success", At: testNow.Add(-5 * time.Minute)},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard-stats", nil)
	rec := httptest.NewRecorder()
	if err := f.h.adminStats(f.adminContext(req, rec)); err != nil {
		t.Fatalf("adminStats: %v", err)
	}

	var resp struct {
		Success          bool         `json:"success"`
		Stats            AdminStats   `json:"stats"`
		RecentActivities []*Activity  `json:"recentActivities"`
		SystemStatus     SystemStatus `json:"systemStatus"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Stats.TotalRegisteredPatients != 120 || resp.Stats.AppointmentsToday != 14 {
		t.Errorf("stats = %+v", resp.Stats)
	}
	if len(resp.RecentActivities) != 1 || resp.RecentActivities[0].Time != "5 min" {
		t.Errorf("activities = %+v", resp.RecentActivities)
	}
	if resp.SystemStatus.Server != "online" || resp.SystemStatus.Database != "online" || resp.SystemStatus.Backup != "completed" {
		t.Errorf("systemStatus = %+v", resp.SystemStatus)
	}
}

func TestAdminRoutesRejectHealthcareToken(t *testing.T) {
	f := newHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard-stats", nil)
	rec := httptest.NewRecorder()
	if err := f.h.adminStats(f.doctorContext(req, rec)); err != nil {
		t.Fatalf("adminStats: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Access denied") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestTimeSeriesHandler(t *testing.T) {
	f := newHandlerFixture()
	f.repo.series = map[string]*TimePoint{
		"2024-03-15": {Date: "2024-03-15", Registrations: 3},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/time-series-stats?period=daily", nil)
	rec := httptest.NewRecorder()
	if err := f.h.timeSeries(f.adminContext(req, rec)); err != nil {
		t.Fatalf("timeSeries: %v", err)
	}

	var resp struct {
		Success        bool         `json:"success"`
		TimeSeriesData []*TimePoint `json:"timeSeriesData"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.TimeSeriesData) != 7 {
		t.Fatalf("buckets = %d, want 7", len(resp.TimeSeriesData))
	}
	if resp.TimeSeriesData[6].Registrations != 3 {
		t.Errorf("today registrations = %d, want 3", resp.TimeSeriesData[6].Registrations)
	}
}

func TestListStaffHandlerPassesSearch(t *testing.T) {
	f := newHandlerFixture()
	f.repo.staffRows = []*StaffRow{{StaffID: "DOC001", Name: "Dr. Maria Santos"}}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/staff?search=santos", nil)
	rec := httptest.NewRecorder()
	if err := f.h.listStaff(f.adminContext(req, rec)); err != nil {
		t.Fatalf("listStaff: %v", err)
	}
	if f.repo.lastSearch != "santos" {
		t.Errorf("search = %q, want santos", f.repo.lastSearch)
	}
	if !strings.Contains(rec.Body.String(), `"staff"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestAnalyzeHandler(t *testing.T) {
	f := newHandlerFixture()
	f.analyzer.reply = `{"textResponse":"Registrations peaked on Monday.","chartType":"line","chartData":[{"name":"Mon","value":7}],"chartTitle":"Daily registrations"}`

	body := `{"query":"When do most patients register?","hospitalData":{"totalRegisteredPatients":120}}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/analyze-data", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := f.h.analyze(f.adminContext(req, rec)); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp AnalyzeResult
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.TextResponse != "Registrations peaked on Monday." || resp.ChartType != "line" {
		t.Errorf("resp = %+v", resp)
	}
	if strings.Contains(rec.Body.String(), `"success"`) {
		t.Error("analyze response should not be wrapped")
	}
}

func TestAnalyzeHandlerRequiresQuery(t *testing.T) {
	f := newHandlerFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/analyze-data", strings.NewReader(`{"query":""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := f.h.analyze(f.adminContext(req, rec)); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Query is required") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestAnalyzeHandlerUnconfigured(t *testing.T) {
	f := newHandlerFixture()
	f.analyzer.configured = false

	req := httptest.NewRequest(http.MethodPost, "/api/admin/analyze-data", strings.NewReader(`{"query":"trend?"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := f.h.analyze(f.adminContext(req, rec)); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
