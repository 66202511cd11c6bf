package visit

// Department identifiers. These are fixed rows seeded by the migrations; the
// triage mapping below refers to them by number.
const (
	DeptEmergency        = 1
	DeptInternalMedicine = 2
	DeptCardiology       = 3
	DeptPediatrics       = 4
)

// PediatricsAgeLimit routes any patient under this age to Pediatrics
// regardless of symptoms.
const PediatricsAgeLimit = 18

// symptomDepartments routes named symptoms to a department. Anything not
// listed falls through to Internal Medicine.
var symptomDepartments = map[string]int{
	"Chest Pain":          DeptCardiology,
	"Chest Discomfort":    DeptCardiology,
	"Heart Palpitations":  DeptCardiology,
	"High Blood Pressure": DeptCardiology,
	"Shortness of Breath": DeptCardiology,
	"Irregular Heartbeat": DeptCardiology,

	"Seizures": DeptEmergency,
	"Wounds":   DeptEmergency,

	"Migraine":        DeptInternalMedicine,
	"Memory Problems": DeptInternalMedicine,
	"Numbness":        DeptInternalMedicine,
	"Tingling":        DeptInternalMedicine,
	"Balance Issues":  DeptInternalMedicine,

	"Stomach Ache": DeptInternalMedicine,
	"Diarrhea":     DeptInternalMedicine,
	"Constipation": DeptInternalMedicine,
	"Heartburn":    DeptInternalMedicine,
	"Bloating":     DeptInternalMedicine,

	"Fever":              DeptInternalMedicine,
	"Headache":           DeptInternalMedicine,
	"Fatigue":            DeptInternalMedicine,
	"Body Aches":         DeptInternalMedicine,
	"Dizziness":          DeptInternalMedicine,
	"Nausea":             DeptInternalMedicine,
	"Vomiting":           DeptInternalMedicine,
	"Loss of Appetite":   DeptInternalMedicine,
	"Cough":              DeptInternalMedicine,
	"Sore Throat":        DeptInternalMedicine,
	"Runny Nose":         DeptInternalMedicine,
	"Sneezing":           DeptInternalMedicine,
	"Back Pain":          DeptInternalMedicine,
	"Joint Pain":         DeptInternalMedicine,
	"Muscle Cramps":      DeptInternalMedicine,
	"Neck Pain":          DeptInternalMedicine,
	"Rash":               DeptInternalMedicine,
	"Itching":            DeptInternalMedicine,
	"Skin Discoloration": DeptInternalMedicine,
	"Acne":               DeptInternalMedicine,
	"Hair Loss":          DeptInternalMedicine,
	"Anxiety":            DeptInternalMedicine,
	"Depression":         DeptInternalMedicine,
	"Stress":             DeptInternalMedicine,
	"Sleep Problems":     DeptInternalMedicine,
	"Mood Changes":       DeptInternalMedicine,
	"Vision Problems":    DeptInternalMedicine,
	"Hearing Loss":       DeptInternalMedicine,
	"Ear Pain":           DeptInternalMedicine,
	"Eye Pain":           DeptInternalMedicine,
	"Discharge":          DeptInternalMedicine,

	"Menstrual Problems": DeptInternalMedicine,
	"Pregnancy Concerns": DeptInternalMedicine,
	"Menopause Symptoms": DeptInternalMedicine,
	"Breast Issues":      DeptInternalMedicine,

	"Annual Check-up":     DeptInternalMedicine,
	"Health Screening":    DeptInternalMedicine,
	"Vaccination":         DeptInternalMedicine,
	"Follow-up Visit":     DeptInternalMedicine,
	"Lab Test Follow-up":  DeptInternalMedicine,
	"Prescription Refill": DeptInternalMedicine,
}

// AssignDepartment picks the department for a symptom list. The first
// recognized symptom wins, so callers should list the most critical symptom
// first.
func AssignDepartment(symptoms []string) int {
	for _, s := range symptoms {
		if dept, ok := symptomDepartments[s]; ok {
			return dept
		}
	}
	return DeptInternalMedicine
}

// DepartmentFor applies the Pediatrics age override on top of symptom
// routing.
func DepartmentFor(symptoms []string, age int) int {
	if age < PediatricsAgeLimit {
		return DeptPediatrics
	}
	return AssignDepartment(symptoms)
}
