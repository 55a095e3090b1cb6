package domain

// CriteriaLookup gives read access to the contraindication and dosage reference tables
type CriteriaLookup interface {
	FindByDrug(name string) []CriteriaEntry
	FindDosageGuideline(name string) (*DosageGuideline, error)
}

// ConditionEvaluator decides whether an entry's patient predicate holds.
// Entries without a predicate always hold.
type ConditionEvaluator interface {
	ConditionHolds(entry CriteriaEntry, patient PatientProfile, category AgeCategory) (bool, error)
}

// DrugResolver maps a National Drug Code to the drug name it identifies
type DrugResolver interface {
	ResolveNDC(code string) (string, bool)
}

// ReferenceCatalog is everything the evaluation core needs from the loaded reference data
type ReferenceCatalog interface {
	CriteriaLookup
	ConditionEvaluator
	DrugResolver
}
