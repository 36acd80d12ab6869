package constvars

const (
	PlanCodePatientBasic        = "patient_basic"
	PlanCodePatientPremium      = "patient_premium"
	PlanCodePractitionerBasic   = "practitioner_basic"
	PlanCodePractitionerPro     = "practitioner_pro"
	UsageResourceConsultations  = "consultations"
	UsageResourceAssessments    = "assessments"
	UsageResourceActivePatients = "active_patients"
)
