package models

import (
	"fmt"
	"time"
)

// Priority constants
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// DisplayIDPrefix precedes the zero-padded numeric id in a case's display id
const DisplayIDPrefix = "MST"

// Case represents a legal proceeding tracked by the team
type Case struct {
	ID        int64  `json:"id"`
	DisplayID string `json:"displayId"`

	// Case identification
	Court         string `json:"court"`
	ProcessNumber string `json:"processNumber"`
	Author        string `json:"author"`
	Defendant     string `json:"defendant"`
	Venue         string `json:"venue"`
	Subject       string `json:"subject"`
	Value         Money  `json:"value"`
	Secret        bool   `json:"secret"`

	// Lifecycle. Dates are kept as entered (YYYY-MM-DD); malformed values are tolerated.
	AppointmentDate  string `json:"appointmentDate"`
	StartDate        string `json:"startDate"`
	AssignedDeadline string `json:"assignedDeadline"`
	FinalDeadline    string `json:"finalDeadline"`
	Priority         string `json:"priority"`
	Phase            string `json:"phase"`
	Status           string `json:"status"`

	// Assignment
	AssigneeName  string `json:"name"`
	AssigneeEmail string `json:"email"`
	CoResponsible string `json:"coResponsible"`

	// Append-only history
	Tramitations []Tramitation `json:"tramitations"`
	Attachments  []Attachment  `json:"attachments"`
}

// Tramitation records a hand-off of a case between assignees
type Tramitation struct {
	FromUser  string    `json:"fromUser"`
	ToUser    string    `json:"toUser"`
	Timestamp time.Time `json:"timestamp"`
	Deadline  string    `json:"deadline"`
}

// Attachment is a file stored inline on a case. Content is a base64 data URL.
type Attachment struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	FileType   string    `json:"fileType"`
	FileSize   int64     `json:"fileSize"`
	Content    string    `json:"content"`
	UploadedBy string    `json:"uploadedBy"`
	Timestamp  time.Time `json:"timestamp"`
}

// FormatDisplayID derives the display id for a numeric case id
func FormatDisplayID(id int64) string {
	return fmt.Sprintf("%s%04d", DisplayIDPrefix, id)
}

// DueDate returns the deadline that drives urgency: the assigned deadline,
// or the final deadline when no assigned one is set.
func (c *Case) DueDate() string {
	if c.AssignedDeadline != "" {
		return c.AssignedDeadline
	}
	return c.FinalDeadline
}

// Clone returns a deep copy of the case
func (c Case) Clone() Case {
	out := c
	if c.Tramitations != nil {
		out.Tramitations = append([]Tramitation{}, c.Tramitations...)
	}
	if c.Attachments != nil {
		out.Attachments = append([]Attachment{}, c.Attachments...)
	}
	return out
}

// IsValidPriority checks if the priority is valid
func IsValidPriority(priority string) bool {
	switch priority {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}
