package visit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clicare/clicare/internal/domain/diagnosis"
	"github.com/clicare/clicare/internal/domain/patient"
	"github.com/clicare/clicare/internal/domain/staff"
)

type mockRepo struct {
	visits   map[uuid.UUID]*Visit
	queues   map[uuid.UUID]*Queue
	symptoms []*Symptom

	// visit ids the fixture doctor has diagnosed
	diagnosed map[uuid.UUID]bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		visits:    make(map[uuid.UUID]*Visit),
		queues:    make(map[uuid.UUID]*Queue),
		diagnosed: make(map[uuid.UUID]bool),
	}
}

var departmentNames = map[int]string{
	DeptEmergency:        "Emergency",
	DeptInternalMedicine: "Internal Medicine",
	DeptCardiology:       "Cardiology",
	DeptPediatrics:       "Pediatrics",
}

func (m *mockRepo) CreateVisit(_ context.Context, v *Visit) error {
	if v.VisitID == uuid.Nil {
		v.VisitID = uuid.New()
	}
	v.CreatedAt = time.Now()
	m.visits[v.VisitID] = v
	return nil
}

func (m *mockRepo) GetVisitForDate(_ context.Context, patientID uuid.UUID, date string) (*Visit, error) {
	for _, v := range m.visits {
		if v.PatientID == patientID && v.VisitDate == date {
			return v, nil
		}
	}
	return nil, ErrVisitNotFound
}

func (m *mockRepo) CreateQueue(_ context.Context, q *Queue, visitDate string) error {
	if q.QueueID == uuid.Nil {
		q.QueueID = uuid.New()
	}
	max := 0
	for _, other := range m.queues {
		if other.DepartmentID != q.DepartmentID {
			continue
		}
		if v, ok := m.visits[other.VisitID]; ok && v.VisitDate != visitDate {
			continue
		}
		if other.QueueNo > max {
			max = other.QueueNo
		}
	}
	q.QueueNo = max + 1
	q.CreatedTime = time.Now()
	m.queues[q.QueueID] = q
	return nil
}

func (m *mockRepo) GetQueueDetail(_ context.Context, queueID uuid.UUID) (*QueueDetail, error) {
	q, ok := m.queues[queueID]
	if !ok {
		return nil, ErrQueueNotFound
	}
	v := m.visits[q.VisitID]
	return &QueueDetail{Queue: *q, PatientUUID: v.PatientID}, nil
}

func (m *mockRepo) UpdateQueueStatus(_ context.Context, queueID uuid.UUID, status string) (*Queue, error) {
	q, ok := m.queues[queueID]
	if !ok {
		return nil, ErrQueueNotFound
	}
	q.Status = status
	q.UpdatedAt = time.Now()
	return q, nil
}

func (m *mockRepo) ListDepartmentQueue(_ context.Context, departmentID int, date string) ([]*QueueEntry, error) {
	var entries []*QueueEntry
	for _, q := range m.queues {
		v := m.visits[q.VisitID]
		if q.DepartmentID != departmentID || v.VisitDate != date {
			continue
		}
		entries = append(entries, &QueueEntry{
			QueueID:    q.QueueID,
			QueueNo:    q.QueueNo,
			Status:     q.Status,
			VisitID:    q.VisitID,
			Symptoms:   v.Symptoms,
			VisitDate:  v.VisitDate,
			Department: departmentNames[departmentID],
		})
	}
	return entries, nil
}

func (m *mockRepo) DepartmentName(_ context.Context, id int) (string, error) {
	name, ok := departmentNames[id]
	if !ok {
		return "", ErrDepartmentNotFound
	}
	return name, nil
}

func (m *mockRepo) ListActiveSymptoms(_ context.Context) ([]*Symptom, error) {
	return m.symptoms, nil
}

func (m *mockRepo) DiagnosedVisitIDs(_ context.Context, _ uuid.UUID, visitIDs []uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, id := range visitIDs {
		if m.diagnosed[id] {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *mockRepo) DepartmentPatients(_ context.Context, _ int) ([]*patient.Patient, error) {
	return nil, nil
}

func (m *mockRepo) CompletedPatients(_ context.Context, _ uuid.UUID, _ int, _ string) ([]*MyPatient, error) {
	return nil, nil
}

func (m *mockRepo) History(_ context.Context, _ uuid.UUID) ([]*HistoryEntry, error) {
	return nil, nil
}

type patientsStub struct {
	patients map[string]*patient.Patient
}

func (s *patientsStub) Create(_ context.Context, _ *patient.Patient) error { return nil }
func (s *patientsStub) GetByID(_ context.Context, _ uuid.UUID) (*patient.Patient, error) {
	return nil, patient.ErrNotFound
}
func (s *patientsStub) GetByPatientID(_ context.Context, patientID string) (*patient.Patient, error) {
	p, ok := s.patients[patientID]
	if !ok {
		return nil, patient.ErrNotFound
	}
	return p, nil
}
func (s *patientsStub) List(_ context.Context, _, _ int) ([]*patient.Patient, int, error) {
	return nil, 0, nil
}
func (s *patientsStub) CreateEmergencyContact(_ context.Context, _ *patient.EmergencyContact) error {
	return nil
}
func (s *patientsStub) ListEmergencyContacts(_ context.Context, _ uuid.UUID) ([]*patient.EmergencyContact, error) {
	return nil, nil
}

type staffStub struct {
	byStaffID map[string]*staff.Staff
}

func (s *staffStub) GetStaffByStaffID(_ context.Context, staffID string) (*staff.Staff, error) {
	st, ok := s.byStaffID[staffID]
	if !ok {
		return nil, staff.ErrStaffNotFound
	}
	return st, nil
}
func (s *staffStub) GetStaffByID(_ context.Context, _ uuid.UUID) (*staff.Staff, error) {
	return nil, staff.ErrStaffNotFound
}
func (s *staffStub) FirstDoctorInDepartment(_ context.Context, departmentID int) (*staff.Staff, error) {
	for _, st := range s.byStaffID {
		if st.DepartmentID == departmentID && st.Role == "Doctor" {
			return st, nil
		}
	}
	return nil, staff.ErrStaffNotFound
}
func (s *staffStub) GetAdminByAdminID(_ context.Context, _ string) (*staff.Admin, error) {
	return nil, staff.ErrAdminNotFound
}

type diagStub struct {
	calls []diagnosis.QueueCompletionInput
}

func (d *diagStub) RecordQueueCompletion(_ context.Context, in diagnosis.QueueCompletionInput) (*diagnosis.Diagnosis, *diagnosis.MedicalRecord, error) {
	d.calls = append(d.calls, in)
	return &diagnosis.Diagnosis{
		DiagnosisID:          uuid.New(),
		VisitID:              in.VisitID,
		PatientID:            in.PatientID,
		StaffID:              in.StaffID,
		DiagnosisDescription: in.Description,
	}, &diagnosis.MedicalRecord{RecordID: uuid.New()}, nil
}

type fixture struct {
	svc      *Service
	repo     *mockRepo
	patients *patientsStub
	diag     *diagStub
	doctor   *staff.Staff
	adult    *patient.Patient
	minor    *patient.Patient
}

func newFixture() *fixture {
	repo := newMockRepo()
	adult := &patient.Patient{ID: uuid.New(), PatientID: "PAT123456001", Name: "Juan Dela Cruz", Age: 35}
	minor := &patient.Patient{ID: uuid.New(), PatientID: "PAT123456002", Name: "Ana Dela Cruz", Age: 9}
	patients := &patientsStub{patients: map[string]*patient.Patient{
		adult.PatientID: adult,
		minor.PatientID: minor,
	}}
	doctor := &staff.Staff{
		ID: uuid.New(), StaffID: "DOC001", Name: "Dr. Reyes", Role: "Doctor",
		Specialization: "Cardiology", DepartmentID: DeptCardiology,
	}
	staffRepo := &staffStub{byStaffID: map[string]*staff.Staff{doctor.StaffID: doctor}}
	diag := &diagStub{}

	svc := NewService(repo, patients, staffRepo, zerolog.Nop())
	svc.SetDiagnosisRecorder(diag)
	return &fixture{svc: svc, repo: repo, patients: patients, diag: diag, doctor: doctor, adult: adult, minor: minor}
}

func TestBook(t *testing.T) {
	f := newFixture()

	res, err := f.svc.Book(context.Background(), BookInput{
		PatientID: "PAT123456001",
		Symptoms:  []string{"Chest Pain", "Dizziness"},
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if res.Department != "Cardiology" || res.QueueNumber != 1 {
		t.Errorf("unexpected booking %+v", res)
	}
	if res.AssignedDoctor != "Dr. Reyes" {
		t.Errorf("assigned doctor = %q", res.AssignedDoctor)
	}
	if res.Visit.Symptoms != "Chest Pain, Dizziness" {
		t.Errorf("symptoms joined as %q", res.Visit.Symptoms)
	}
	if res.Visit.AppointmentType != "Walk-in" {
		t.Errorf("appointment type = %q", res.Visit.AppointmentType)
	}
}

func TestBookQueueNumbersIncrementPerDepartment(t *testing.T) {
	f := newFixture()

	first, err := f.svc.Book(context.Background(), BookInput{PatientID: "PAT123456001", Symptoms: []string{"Chest Pain"}})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	second, err := f.svc.Book(context.Background(), BookInput{PatientID: "PAT123456001", Symptoms: []string{"Heart Palpitations"}})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if first.QueueNumber != 1 || second.QueueNumber != 2 {
		t.Errorf("queue numbers = %d, %d", first.QueueNumber, second.QueueNumber)
	}

	// A different department starts its own sequence.
	other, err := f.svc.Book(context.Background(), BookInput{PatientID: "PAT123456001", Symptoms: []string{"Fever"}})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if other.QueueNumber != 1 {
		t.Errorf("internal medicine queue number = %d, want 1", other.QueueNumber)
	}
}

func TestBookMinorGoesToPediatrics(t *testing.T) {
	f := newFixture()

	res, err := f.svc.Book(context.Background(), BookInput{
		PatientID: "PAT123456002",
		Symptoms:  []string{"Chest Pain"},
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if res.Department != "Pediatrics" {
		t.Errorf("department = %q, want Pediatrics", res.Department)
	}
}

func TestBookValidation(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.Book(context.Background(), BookInput{PatientID: "PAT123456001"}); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("err = %v, want ErrMissingFields", err)
	}
	if _, err := f.svc.Book(context.Background(), BookInput{PatientID: "PAT999", Symptoms: []string{"Fever"}}); !errors.Is(err, patient.ErrNotFound) {
		t.Fatalf("err = %v, want patient.ErrNotFound", err)
	}
}

func TestBookWalkIn(t *testing.T) {
	f := newFixture()

	booking, err := f.svc.BookWalkIn(context.Background(), f.adult, []string{"Wounds"}, "Walk-in Registration")
	if err != nil {
		t.Fatalf("BookWalkIn: %v", err)
	}
	if booking.Department != "Emergency" || booking.QueueNo != 1 {
		t.Errorf("unexpected booking %+v", booking)
	}
}

func TestGetOrCreateTodayVisit(t *testing.T) {
	f := newFixture()

	id1, created, err := f.svc.GetOrCreateTodayVisit(context.Background(), "PAT123456001")
	if err != nil {
		t.Fatalf("GetOrCreateTodayVisit: %v", err)
	}
	if !created {
		t.Fatal("first call should create a visit")
	}
	v := f.repo.visits[id1]
	if v.AppointmentType != "Diagnosis Consultation" {
		t.Errorf("appointment type = %q", v.AppointmentType)
	}

	id2, created, err := f.svc.GetOrCreateTodayVisit(context.Background(), "PAT123456001")
	if err != nil {
		t.Fatalf("GetOrCreateTodayVisit: %v", err)
	}
	if created || id2 != id1 {
		t.Errorf("second call created=%v id=%v, want existing %v", created, id2, id1)
	}
}

func TestUpdateQueueStatus(t *testing.T) {
	f := newFixture()
	res, err := f.svc.Book(context.Background(), BookInput{PatientID: "PAT123456001", Symptoms: []string{"Chest Pain"}})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	var queueID uuid.UUID
	for id := range f.repo.queues {
		queueID = id
	}

	q, d, m, err := f.svc.UpdateQueueStatus(context.Background(), "DOC001", queueID, StatusUpdateInput{Status: StatusInProgress})
	if err != nil {
		t.Fatalf("UpdateQueueStatus: %v", err)
	}
	if q.Status != StatusInProgress || d != nil || m != nil {
		t.Errorf("q=%+v d=%v m=%v", q, d, m)
	}

	q, d, m, err = f.svc.UpdateQueueStatus(context.Background(), "DOC001", queueID, StatusUpdateInput{
		Status:               StatusCompleted,
		DiagnosisDescription: "Stable angina",
		Severity:             "severe",
	})
	if err != nil {
		t.Fatalf("UpdateQueueStatus: %v", err)
	}
	if q.Status != StatusCompleted || d == nil || m == nil {
		t.Fatalf("completion should record a diagnosis, q=%+v d=%v m=%v", q, d, m)
	}
	if len(f.diag.calls) != 1 {
		t.Fatalf("recorder calls = %d, want 1", len(f.diag.calls))
	}
	call := f.diag.calls[0]
	if call.StaffID != f.doctor.ID || call.VisitID != res.Visit.VisitID || call.PatientID != f.adult.ID {
		t.Errorf("unexpected recorder input %+v", call)
	}
}

func TestUpdateQueueStatusCompletedWithoutDiagnosis(t *testing.T) {
	f := newFixture()
	f.svc.Book(context.Background(), BookInput{PatientID: "PAT123456001", Symptoms: []string{"Fever"}})
	var queueID uuid.UUID
	for id := range f.repo.queues {
		queueID = id
	}

	_, d, m, err := f.svc.UpdateQueueStatus(context.Background(), "DOC001", queueID, StatusUpdateInput{Status: StatusCompleted})
	if err != nil {
		t.Fatalf("UpdateQueueStatus: %v", err)
	}
	if d != nil || m != nil || len(f.diag.calls) != 0 {
		t.Error("no diagnosis should be recorded without a description")
	}
}

func TestUpdateQueueStatusInvalid(t *testing.T) {
	f := newFixture()

	_, _, _, err := f.svc.UpdateQueueStatus(context.Background(), "DOC001", uuid.New(), StatusUpdateInput{Status: "done"})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}

	_, _, _, err = f.svc.UpdateQueueStatus(context.Background(), "DOC001", uuid.New(), StatusUpdateInput{Status: StatusWaiting})
	if !errors.Is(err, ErrQueueNotFound) {
		t.Fatalf("err = %v, want ErrQueueNotFound", err)
	}
}

func TestDepartmentQueueDiagnosedByMe(t *testing.T) {
	f := newFixture()
	f.svc.Book(context.Background(), BookInput{PatientID: "PAT123456001", Symptoms: []string{"Chest Pain"}})
	f.svc.Book(context.Background(), BookInput{PatientID: "PAT123456002", Symptoms: []string{"Chest Pain"}})

	// Complete the cardiology queue entry under this doctor. The minor's
	// booking queues into Pediatrics, so select by department.
	var firstQueue *Queue
	for _, q := range f.repo.queues {
		if q.DepartmentID == DeptCardiology {
			firstQueue = q
		}
	}
	if firstQueue == nil {
		t.Fatal("no cardiology queue entry created")
	}
	firstQueue.Status = StatusCompleted
	f.repo.diagnosed[firstQueue.VisitID] = true

	entries, dept, err := f.svc.DepartmentQueue(context.Background(), "DOC001")
	if err != nil {
		t.Fatalf("DepartmentQueue: %v", err)
	}
	if dept.ID != DeptCardiology {
		t.Errorf("department id = %d", dept.ID)
	}
	// The fixture minor queues into Pediatrics, so only cardiology rows
	// appear here.
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if !entries[0].DiagnosedByMe {
		t.Error("completed entry diagnosed by this doctor not flagged")
	}
}

func TestQueueNumbersRestartEachDay(t *testing.T) {
	f := newFixture()
	book := func(t *testing.T) *BookResult {
		t.Helper()
		res, err := f.svc.Book(context.Background(), BookInput{
			PatientID: "PAT123456001",
			Symptoms:  []string{"Chest Pain"},
		})
		if err != nil {
			t.Fatalf("Book: %v", err)
		}
		return res
	}

	f.svc.now = func() time.Time { return time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC) }
	if got := book(t).QueueNumber; got != 1 {
		t.Errorf("first booking queue no = %d, want 1", got)
	}
	if got := book(t).QueueNumber; got != 2 {
		t.Errorf("second same-day booking queue no = %d, want 2", got)
	}

	// The counter is per department per day, not all-time.
	f.svc.now = func() time.Time { return time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC) }
	if got := book(t).QueueNumber; got != 1 {
		t.Errorf("next-day booking queue no = %d, want 1", got)
	}
}

func TestSymptomCatalogOrdering(t *testing.T) {
	f := newFixture()
	f.repo.symptoms = []*Symptom{
		{Name: "Vaccination", Category: "Routine Care"},
		{Name: "Chest Pain", Category: "Heart & Circulation"},
		{Name: "Fever", Category: "General Symptoms"},
		{Name: "Headache", Category: "General Symptoms"},
		{Name: "Stomach Ache", Category: "Digestive"},
	}

	categories, total, err := f.svc.SymptomCatalog(context.Background())
	if err != nil {
		t.Fatalf("SymptomCatalog: %v", err)
	}
	if total != 5 || len(categories) != 4 {
		t.Fatalf("total = %d categories = %d", total, len(categories))
	}

	order := make([]string, len(categories))
	for i, c := range categories {
		order[i] = c.Category
	}
	want := []string{"General Symptoms", "Digestive", "Heart & Circulation", "Routine Care"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("category order = %v, want %v", order, want)
		}
	}

	if categories[0].Count != 2 || len(categories[0].Symptoms) != 2 {
		t.Errorf("general symptoms grouped badly: %+v", categories[0])
	}
}
