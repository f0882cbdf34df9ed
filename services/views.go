package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"case_desk_app_go/models"
)

// Case list partitions
const (
	ViewActive   = "active"
	ViewArchived = "archived"
	ViewAll      = "all"
)

// CaseView is a case with its freshly computed deadline class
type CaseView struct {
	models.Case
	DeadlineClass DeadlineClass `json:"deadlineClass"`
}

// CaseFilter narrows the case list. Zero values match everything except
// View, which defaults to active cases.
type CaseFilter struct {
	View     string
	Assignee string
	Query    string
	Deadline DeadlineClass
	Priority string
	Status   string
}

// KanbanColumn groups the cases sharing one status
type KanbanColumn struct {
	Status string     `json:"status"`
	Cases  []CaseView `json:"cases"`
}

// CalendarEntry places a case on a calendar day
type CalendarEntry struct {
	CaseView
	Kind string `json:"kind"` // "assigned" or "final"
}

// CalendarDay lists the deadlines falling on one date
type CalendarDay struct {
	Date    string          `json:"date"`
	Entries []CalendarEntry `json:"entries"`
}

// Dashboard aggregates counts over all cases
type Dashboard struct {
	Total      int                   `json:"total"`
	Active     int                   `json:"active"`
	Archived   int                   `json:"archived"`
	ByDeadline map[DeadlineClass]int `json:"byDeadline"`
	ByStatus   map[string]int        `json:"byStatus"`
	ByPriority map[string]int        `json:"byPriority"`
	ByAssignee map[string]int        `json:"byAssignee"`
	TotalValue models.Money          `json:"totalValue"`
}

// ListCases returns the cases matching the filter in store order
func (s *CaseStore) ListCases(filter CaseFilter) ([]CaseView, error) {
	view := strings.ToLower(strings.TrimSpace(filter.View))
	switch view {
	case "":
		view = ViewActive
	case ViewActive, ViewArchived, ViewAll:
	default:
		return nil, fmt.Errorf("%w: view %q", ErrInvalidInput, filter.View)
	}

	now := s.Now()
	query := Fold(filter.Query)
	assignee := models.NormalizeKey(filter.Assignee)
	priority := models.NormalizeKey(filter.Priority)
	status := models.NormalizeKey(filter.Status)

	out := []CaseView{}
	for _, c := range s.Cases() {
		archived := IsArchived(c.Status)
		if view == ViewActive && archived || view == ViewArchived && !archived {
			continue
		}
		if assignee != "" && models.NormalizeKey(c.AssigneeName) != assignee {
			continue
		}
		if priority != "" && models.NormalizeKey(c.Priority) != priority {
			continue
		}
		if status != "" && models.NormalizeKey(c.Status) != status {
			continue
		}
		if query != "" && !matchesQuery(&c, query) {
			continue
		}

		cv := CaseView{Case: c, DeadlineClass: ClassifyCase(&c, now)}
		if filter.Deadline != "" && cv.DeadlineClass != filter.Deadline {
			continue
		}
		out = append(out, cv)
	}
	return out, nil
}

// Kanban groups the filtered cases by status, in the configured status
// order. Statuses used by cases but missing from the lookup list get
// their own columns after the configured ones.
func (s *CaseStore) Kanban(filter CaseFilter) ([]KanbanColumn, error) {
	cases, err := s.ListCases(filter)
	if err != nil {
		return nil, err
	}
	statuses, _ := s.Lookups(models.LookupStatuses)

	columns := make([]KanbanColumn, 0, len(statuses))
	position := make(map[string]int, len(statuses))
	for _, st := range statuses {
		key := models.NormalizeKey(st.Name)
		if _, dup := position[key]; dup {
			continue
		}
		position[key] = len(columns)
		columns = append(columns, KanbanColumn{Status: st.Name, Cases: []CaseView{}})
	}

	for _, cv := range cases {
		key := models.NormalizeKey(cv.Status)
		idx, ok := position[key]
		if !ok {
			idx = len(columns)
			position[key] = idx
			columns = append(columns, KanbanColumn{Status: cv.Status, Cases: []CaseView{}})
		}
		columns[idx].Cases = append(columns[idx].Cases, cv)
	}
	return columns, nil
}

// Calendar lists the assigned and final deadlines falling in the month
// (YYYY-MM) of the filtered cases, ordered by date.
func (s *CaseStore) Calendar(month string, filter CaseFilter) ([]CalendarDay, error) {
	var start time.Time
	if strings.TrimSpace(month) == "" {
		start = midnight(s.Now())
		start = start.AddDate(0, 0, 1-start.Day())
	} else {
		t, err := time.Parse("2006-01", strings.TrimSpace(month))
		if err != nil {
			return nil, fmt.Errorf("%w: month must be YYYY-MM", ErrInvalidInput)
		}
		start = t
	}
	end := start.AddDate(0, 1, 0)

	cases, err := s.ListCases(filter)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string][]CalendarEntry)
	add := func(cv CaseView, date, kind string) {
		d, err := ParseDate(date)
		if err != nil || d.Before(start) || !d.Before(end) {
			return
		}
		key := d.Format("2006-01-02")
		byDate[key] = append(byDate[key], CalendarEntry{CaseView: cv, Kind: kind})
	}
	for _, cv := range cases {
		add(cv, cv.AssignedDeadline, "assigned")
		add(cv, cv.FinalDeadline, "final")
	}

	days := make([]CalendarDay, 0, len(byDate))
	for date, entries := range byDate {
		days = append(days, CalendarDay{Date: date, Entries: entries})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days, nil
}

// Dashboard counts cases per deadline class, status, priority and assignee.
// Deadline classes cover active cases only.
func (s *CaseStore) Dashboard() Dashboard {
	now := s.Now()
	d := Dashboard{
		ByDeadline: make(map[DeadlineClass]int, len(AllDeadlineClasses)),
		ByStatus:   map[string]int{},
		ByPriority: map[string]int{},
		ByAssignee: map[string]int{},
	}
	for _, class := range AllDeadlineClasses {
		d.ByDeadline[class] = 0
	}

	for _, c := range s.Cases() {
		d.Total++
		d.TotalValue += c.Value
		d.ByStatus[c.Status]++
		d.ByPriority[c.Priority]++
		if IsArchived(c.Status) {
			d.Archived++
			continue
		}
		d.Active++
		d.ByDeadline[ClassifyCase(&c, now)]++
		if c.AssigneeName != "" {
			d.ByAssignee[c.AssigneeName]++
		}
	}
	return d
}

func matchesQuery(c *models.Case, folded string) bool {
	for _, field := range []string{
		c.ProcessNumber, c.DisplayID, c.Court, c.Author, c.Defendant,
		c.Venue, c.Subject, c.AssigneeName, c.CoResponsible,
	} {
		if strings.Contains(Fold(field), folded) {
			return true
		}
	}
	return false
}
