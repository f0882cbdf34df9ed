package models

// ArchivedStatus is the reserved status label that marks a case archived
const ArchivedStatus = "Archived"

// Snapshot is the whole application state, persisted as one document
type Snapshot struct {
	Users     []User   `json:"users"`
	Cases     []Case   `json:"cases"`
	Tribunals []Lookup `json:"tribunals"`
	Phases    []Lookup `json:"phases"`
	Statuses  []Lookup `json:"statuses"`
}

// Clone returns a deep copy of the snapshot
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Users:     append([]User{}, s.Users...),
		Cases:     make([]Case, len(s.Cases)),
		Tribunals: append([]Lookup{}, s.Tribunals...),
		Phases:    append([]Lookup{}, s.Phases...),
		Statuses:  append([]Lookup{}, s.Statuses...),
	}
	for i := range s.Cases {
		out.Cases[i] = s.Cases[i].Clone()
	}
	return out
}

// Normalize replaces nil collections with empty ones so the document always
// encodes every key as an array.
func (s *Snapshot) Normalize() {
	if s.Users == nil {
		s.Users = []User{}
	}
	if s.Cases == nil {
		s.Cases = []Case{}
	}
	if s.Tribunals == nil {
		s.Tribunals = []Lookup{}
	}
	if s.Phases == nil {
		s.Phases = []Lookup{}
	}
	if s.Statuses == nil {
		s.Statuses = []Lookup{}
	}
	for i := range s.Cases {
		if s.Cases[i].Tramitations == nil {
			s.Cases[i].Tramitations = []Tramitation{}
		}
		if s.Cases[i].Attachments == nil {
			s.Cases[i].Attachments = []Attachment{}
		}
	}
}

// Lookups returns a pointer to the lookup collection of the given kind
func (s *Snapshot) Lookups(kind string) *[]Lookup {
	switch kind {
	case LookupTribunals:
		return &s.Tribunals
	case LookupPhases:
		return &s.Phases
	case LookupStatuses:
		return &s.Statuses
	}
	return nil
}

// DefaultSnapshot is used when nothing has been saved yet or the stored data is unreadable
func DefaultSnapshot() *Snapshot {
	named := func(names ...string) []Lookup {
		out := make([]Lookup, len(names))
		for i, n := range names {
			out[i] = Lookup{ID: int64(i + 1), Name: n}
		}
		return out
	}

	return &Snapshot{
		Users: []User{
			{ID: 1, Name: "Administrator", Email: "admin@casedesk.local", Permission: PermissionAdmin},
		},
		Cases:     []Case{},
		Tribunals: named("TJSP", "TRT-2", "TRF-3", "STJ"),
		Phases:    named("Initial", "Discovery", "Trial", "Appeal", "Enforcement"),
		Statuses:  named("Open", "In Progress", "Awaiting Decision", "Concluded", ArchivedStatus),
	}
}
