package db

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestLoadMigrations(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"001_core.sql":   "CREATE TABLE patients (id SERIAL PRIMARY KEY);",
		"002_visits.sql": "CREATE TABLE patient_visits (id SERIAL PRIMARY KEY);",
		"003_labs.sql":   "CREATE TABLE lab_requests (id SERIAL PRIMARY KEY);",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write test file %s: %v", name, err)
		}
	}

	migrator := NewMigrator(nil, dir)
	migrations, err := migrator.LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}

	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}

	if migrations[0].Version != 1 {
		t.Errorf("expected version 1, got %d", migrations[0].Version)
	}
	if migrations[0].Name != "001_core.sql" {
		t.Errorf("expected name 001_core.sql, got %s", migrations[0].Name)
	}
	if migrations[0].SQL != "CREATE TABLE patients (id SERIAL PRIMARY KEY);" {
		t.Errorf("unexpected SQL content: %s", migrations[0].SQL)
	}

	if migrations[1].Version != 2 {
		t.Errorf("expected version 2, got %d", migrations[1].Version)
	}
	if migrations[2].Version != 3 {
		t.Errorf("expected version 3, got %d", migrations[2].Version)
	}
}

func TestLoadMigrations_SortOrder(t *testing.T) {
	dir := t.TempDir()

	// Create files in reverse order to test sorting
	files := []struct {
		name    string
		content string
	}{
		{"010_tables.sql", "SELECT 10;"},
		{"002_second.sql", "SELECT 2;"},
		{"001_first.sql", "SELECT 1;"},
		{"005_middle.sql", "SELECT 5;"},
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.name), []byte(f.content), 0644); err != nil {
			t.Fatalf("failed to write test file %s: %v", f.name, err)
		}
	}

	migrator := NewMigrator(nil, dir)
	migrations, err := migrator.LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}

	if len(migrations) != 4 {
		t.Fatalf("expected 4 migrations, got %d", len(migrations))
	}

	expectedVersions := []int{1, 2, 5, 10}
	for i, expected := range expectedVersions {
		if migrations[i].Version != expected {
			t.Errorf("migration[%d]: expected version %d, got %d", i, expected, migrations[i].Version)
		}
	}
}

func TestLoadMigrations_InvalidFilename(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"001_valid.sql":      "SELECT 1;",
		"readme.sql":         "-- this has no version prefix",
		"notes.txt":          "not a sql file",
		"abc_invalid.sql":    "-- non-numeric prefix",
		"002_also_valid.sql": "SELECT 2;",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write test file %s: %v", name, err)
		}
	}

	migrator := NewMigrator(nil, dir)
	migrations, err := migrator.LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}

	if len(migrations) != 2 {
		t.Fatalf("expected 2 valid migrations, got %d", len(migrations))
	}

	if migrations[0].Version != 1 {
		t.Errorf("expected first migration version 1, got %d", migrations[0].Version)
	}
	if migrations[1].Version != 2 {
		t.Errorf("expected second migration version 2, got %d", migrations[1].Version)
	}
}

func TestLoadMigrations_EmptyDir(t *testing.T) {
	dir := t.TempDir()

	migrator := NewMigrator(nil, dir)
	migrations, err := migrator.LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}

	if len(migrations) != 0 {
		t.Errorf("expected 0 migrations from empty dir, got %d", len(migrations))
	}
}

func TestLoadMigrations_NonExistentDir(t *testing.T) {
	migrator := NewMigrator(nil, "/nonexistent/path/that/does/not/exist")
	_, err := migrator.LoadMigrations()
	if err == nil {
		t.Error("expected error for non-existent directory")
	}
}

// parseSchemaColumns extracts table -> column names from CREATE TABLE
// statements, the way Postgres would see them.
func parseSchemaColumns(t *testing.T, sql string) map[string]map[string]bool {
	t.Helper()
	schema := make(map[string]map[string]bool)

	re := regexp.MustCompile(`(?s)CREATE TABLE (\w+) \((.*?)\n\);`)
	for _, m := range re.FindAllStringSubmatch(sql, -1) {
		table := m[1]
		cols := make(map[string]bool)
		for _, line := range strings.Split(m[2], "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "--") {
				continue
			}
			first := strings.Fields(line)[0]
			switch strings.ToUpper(first) {
			case "PRIMARY", "FOREIGN", "UNIQUE", "CHECK", "CONSTRAINT":
				continue
			}
			cols[first] = true
		}
		schema[table] = cols
	}
	return schema
}

// TestShippedSchemaCoversQueriedColumns loads the real migration files and
// checks every table/column pair the repositories reference in SQL. A rename
// on either side is caught here instead of at first request.
func TestShippedSchemaCoversQueriedColumns(t *testing.T) {
	migrator := NewMigrator(nil, filepath.Join("..", "..", "..", "migrations"))
	migrations, err := migrator.LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("no migration files found")
	}

	var all strings.Builder
	for _, m := range migrations {
		all.WriteString(m.SQL)
		all.WriteString("\n")
	}
	schema := parseSchemaColumns(t, all.String())

	required := map[string][]string{
		"department": {"department_id", "name"},
		"out_patient": {"id", "patient_id", "name", "birthday", "age", "sex", "address",
			"contact_no", "email", "registration_date", "created_at"},
		"emergency_contact": {"id", "patient_id", "name", "contact_number", "relationship"},
		"health_staff": {"id", "staff_id", "name", "role", "specialization",
			"department_id", "license_no", "contact_no", "password", "created_at"},
		"health_admin": {"id", "healthadmin_id", "name", "position", "password", "created_at"},
		"otp_verification": {"id", "patient_id", "contact_info", "contact_type", "otp_code",
			"attempts", "is_verified", "expires_at", "created_at"},
		"symptom": {"name", "category", "department_id", "age_group", "priority",
			"estimated_wait", "is_active"},
		"visit": {"visit_id", "patient_id", "visit_date", "visit_time", "appointment_type",
			"symptoms", "duration", "severity", "previous_treatment", "allergies",
			"medications", "created_at"},
		"queue": {"queue_id", "visit_id", "department_id", "queue_no", "status",
			"created_time", "updated_at"},
		"diagnosis": {"diagnosis_id", "visit_id", "patient_id", "staff_id", "diagnosis_code",
			"diagnosis_description", "diagnosis_type", "severity", "notes", "created_at"},
		"lab_request": {"request_id", "visit_id", "staff_id", "test_type", "priority",
			"instructions", "due_date", "status", "created_at"},
		"lab_result": {"result_id", "request_id", "patient_id", "file_path", "upload_date",
			"results", "interpretation", "created_at"},
		"medical_record": {"record_id", "patient_id", "visit_id", "result_id",
			"created_at", "updated_at"},
	}

	for table, cols := range required {
		defined, ok := schema[table]
		if !ok {
			t.Errorf("table %s is not created by any migration", table)
			continue
		}
		for _, col := range cols {
			if !defined[col] {
				t.Errorf("column %s.%s is queried but not defined in the schema", table, col)
			}
		}
	}
}
