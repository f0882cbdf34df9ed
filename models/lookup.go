package models

// Lookup kinds
const (
	LookupTribunals = "tribunals"
	LookupPhases    = "phases"
	LookupStatuses  = "statuses"
)

// Lookup is a named label (tribunal, phase or status) referenced by cases by name
type Lookup struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// IsValidLookupKind checks if the kind names one of the lookup collections
func IsValidLookupKind(kind string) bool {
	switch kind {
	case LookupTribunals, LookupPhases, LookupStatuses:
		return true
	}
	return false
}
