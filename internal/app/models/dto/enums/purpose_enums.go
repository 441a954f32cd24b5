package enums

// ProjectPurpose describes why a community runs a project
type ProjectPurpose string

const (
	PurposeStrengthAssessment ProjectPurpose = "Individual Strength-Based Assessment"
	PurposeTriage             ProjectPurpose = "Triage and Case Management"
	PurposePopulationHealth   ProjectPurpose = "Population Health Assessment"
	PurposeProgramEvaluation  ProjectPurpose = "Program Evaluation"
	PurposeAcademicResearch   ProjectPurpose = "Academic or Scientific Research"
	PurposeOther              ProjectPurpose = "Other"
)

// ValidPurpose reports whether p is one of the defined purposes.
func ValidPurpose(p ProjectPurpose) bool {
	switch p {
	case PurposeStrengthAssessment, PurposeTriage, PurposePopulationHealth,
		PurposeProgramEvaluation, PurposeAcademicResearch, PurposeOther:
		return true
	}
	return false
}
