package services

import (
	"html"
	"strings"

	"case_desk_app_go/models"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeText strips every HTML tag from user input. Entities produced by
// the policy are decoded again so "A & B" round-trips unchanged.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// SanitizeCase cleans the free-text fields of a case draft or update
func SanitizeCase(c *models.Case) {
	for _, field := range []*string{
		&c.Court, &c.ProcessNumber, &c.Author, &c.Defendant, &c.Venue,
		&c.Subject, &c.Priority, &c.Phase, &c.Status,
		&c.AssigneeName, &c.AssigneeEmail, &c.CoResponsible,
	} {
		*field = SanitizeText(*field)
	}
}
