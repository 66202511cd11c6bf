package visit

import "testing"

func TestAssignDepartment(t *testing.T) {
	tests := []struct {
		name     string
		symptoms []string
		want     int
	}{
		{"cardiac symptom", []string{"Chest Pain"}, DeptCardiology},
		{"emergency symptom", []string{"Seizures"}, DeptEmergency},
		{"general symptom", []string{"Fever"}, DeptInternalMedicine},
		{"first recognized wins", []string{"Chest Pain", "Fever"}, DeptCardiology},
		{"unknown falls through", []string{"Glowing"}, DeptInternalMedicine},
		{"unknown then cardiac", []string{"Glowing", "Heart Palpitations"}, DeptCardiology},
		{"empty list", nil, DeptInternalMedicine},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AssignDepartment(tt.symptoms); got != tt.want {
				t.Errorf("AssignDepartment(%v) = %d, want %d", tt.symptoms, got, tt.want)
			}
		})
	}
}

func TestDepartmentForPediatricsOverride(t *testing.T) {
	if got := DepartmentFor([]string{"Chest Pain"}, 17); got != DeptPediatrics {
		t.Errorf("minor with cardiac symptom routed to %d, want Pediatrics", got)
	}
	if got := DepartmentFor([]string{"Chest Pain"}, 18); got != DeptCardiology {
		t.Errorf("adult with cardiac symptom routed to %d, want Cardiology", got)
	}
}
