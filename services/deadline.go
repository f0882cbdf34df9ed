package services

import (
	"math"
	"strings"
	"time"

	"case_desk_app_go/models"
)

// DeadlineClass is the urgency bucket of a case
type DeadlineClass string

const (
	DeadlineCompleted DeadlineClass = "completed"
	DeadlineOverdue   DeadlineClass = "overdue"
	DeadlineDueSoon   DeadlineClass = "due_soon"
	DeadlineOnTrack   DeadlineClass = "on_track"
	DeadlineUnset     DeadlineClass = "unset"
)

// DueSoonWindowDays is how many days ahead a deadline counts as due soon
const DueSoonWindowDays = 7

// terminalKeywords mark a status as finished. Compared against Fold(status).
var terminalKeywords = []string{
	"concluded",
	"concluido",
	"finished",
	"finalizado",
	"final judgment",
	"final-judgment",
	"transito em julgado",
	"transitado",
	"archived",
	"arquivado",
	"closed",
	"encerrado",
}

// AllDeadlineClasses lists the buckets in display order
var AllDeadlineClasses = []DeadlineClass{
	DeadlineOverdue,
	DeadlineDueSoon,
	DeadlineOnTrack,
	DeadlineUnset,
	DeadlineCompleted,
}

// ClassifyDeadline buckets a due date relative to now. A terminal status wins
// over any date; missing or malformed dates are Unset.
func ClassifyDeadline(dueDate, status string, now time.Time) DeadlineClass {
	if IsTerminalStatus(status) {
		return DeadlineCompleted
	}
	if strings.TrimSpace(dueDate) == "" {
		return DeadlineUnset
	}
	due, err := ParseDate(dueDate)
	if err != nil {
		return DeadlineUnset
	}

	today := midnight(now)
	if due.Before(today) {
		return DeadlineOverdue
	}
	days := math.Ceil(due.Sub(today).Hours() / 24)
	if days <= DueSoonWindowDays {
		return DeadlineDueSoon
	}
	return DeadlineOnTrack
}

// ClassifyCase classifies a case by its driving deadline
func ClassifyCase(c *models.Case, now time.Time) DeadlineClass {
	return ClassifyDeadline(c.DueDate(), c.Status, now)
}

// IsTerminalStatus checks if the status label contains a terminal keyword
func IsTerminalStatus(status string) bool {
	folded := Fold(status)
	if folded == "" {
		return false
	}
	for _, keyword := range terminalKeywords {
		if strings.Contains(folded, keyword) {
			return true
		}
	}
	return false
}

// IsArchived checks if the status is the reserved archived label
func IsArchived(status string) bool {
	folded := Fold(status)
	return folded == Fold(models.ArchivedStatus) || folded == "arquivado"
}
