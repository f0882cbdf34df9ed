package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"case_desk_app_go/models"

	"github.com/xuri/excelize/v2"
)

// ImportActor is the tramitation origin recorded on imported cases
const ImportActor = "Import process"

// ImportReport summarizes a reconciled import batch
type ImportReport struct {
	Accepted                  []models.Case `json:"accepted"`
	RejectedDuplicateInSystem []string      `json:"rejectedDuplicateInSystem"`
	RejectedDuplicateInFile   []string      `json:"rejectedDuplicateInFile"`
	SkippedMissingNumber      int           `json:"skippedMissingNumber"`
}

// importColumn maps spreadsheet headers onto a case field
type importColumn struct {
	Field   string
	Header  string
	Aliases []string
}

// importColumns lists the recognized columns in template order. Aliases are
// compared after normalizeHeader.
var importColumns = []importColumn{
	{"processNumber", "Process Number", []string{"process number", "process", "case number", "processo", "numero do processo", "n do processo", "no do processo", "numero processo", "numero"}},
	{"court", "Court", []string{"court", "tribunal", "orgao"}},
	{"author", "Author", []string{"author", "plaintiff", "autor", "requerente"}},
	{"defendant", "Defendant", []string{"defendant", "reu", "requerido"}},
	{"venue", "Venue", []string{"venue", "vara", "comarca", "foro"}},
	{"subject", "Subject", []string{"subject", "assunto", "materia", "objeto"}},
	{"value", "Value", []string{"value", "amount", "valor", "valor da causa"}},
	{"secret", "Secret", []string{"secret", "segredo", "segredo de justica", "sigilo"}},
	{"appointmentDate", "Appointment Date", []string{"appointment date", "appointment", "data de nomeacao", "nomeacao"}},
	{"startDate", "Start Date", []string{"start date", "start", "data de inicio", "inicio"}},
	{"assignedDeadline", "Assigned Deadline", []string{"assigned deadline", "deadline", "prazo", "prazo designado", "prazo interno"}},
	{"finalDeadline", "Final Deadline", []string{"final deadline", "prazo final", "prazo fatal"}},
	{"priority", "Priority", []string{"priority", "prioridade"}},
	{"phase", "Phase", []string{"phase", "fase"}},
	{"status", "Status", []string{"status", "situacao"}},
	{"name", "Assignee", []string{"assignee", "name", "responsible", "responsavel", "nome"}},
	{"email", "Email", []string{"email", "e mail"}},
	{"coResponsible", "Co-responsible", []string{"co responsible", "coresponsible", "co responsavel", "corresponsavel"}},
}

var dateFields = map[string]bool{
	"appointmentDate":  true,
	"startDate":        true,
	"assignedDeadline": true,
	"finalDeadline":    true,
}

// normalizeHeader folds a header and drops punctuation, so "Nº do Processo*"
// becomes "n do processo".
func normalizeHeader(header string) string {
	s := strings.NewReplacer("º", "", "°", "", "ª", "").Replace(header)
	s = Fold(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// MapHeaders resolves each header cell to a case field key, "" when unknown
func MapHeaders(headers []string) []string {
	lookup := make(map[string]string)
	for _, col := range importColumns {
		lookup[normalizeHeader(col.Header)] = col.Field
		lookup[normalizeHeader(col.Field)] = col.Field
		for _, alias := range col.Aliases {
			lookup[alias] = col.Field
		}
	}

	fields := make([]string, len(headers))
	used := make(map[string]bool)
	for i, h := range headers {
		field := lookup[normalizeHeader(h)]
		if field != "" && !used[field] {
			fields[i] = field
			used[field] = true
		}
	}
	return fields
}

// Reconcile splits incoming rows into accepted cases and duplicates. Rows
// whose process number already exists are system duplicates; repeats within
// the batch are file duplicates (the first occurrence wins). Accepted rows
// get ids from nextID and an import tramitation.
func Reconcile(existing []models.Case, rows []models.Case, nextID func() int64, now time.Time) ImportReport {
	report := ImportReport{
		Accepted:                  []models.Case{},
		RejectedDuplicateInSystem: []string{},
		RejectedDuplicateInFile:   []string{},
	}

	inSystem := make(map[string]bool, len(existing))
	for _, c := range existing {
		inSystem[models.NormalizeKey(c.ProcessNumber)] = true
	}
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		number := strings.TrimSpace(row.ProcessNumber)
		key := models.NormalizeKey(number)
		switch {
		case key == "":
			report.SkippedMissingNumber++
			continue
		case inSystem[key]:
			report.RejectedDuplicateInSystem = append(report.RejectedDuplicateInSystem, number)
			continue
		case seen[key]:
			report.RejectedDuplicateInFile = append(report.RejectedDuplicateInFile, number)
			continue
		}
		seen[key] = true

		c := row.Clone()
		c.ID = nextID()
		c.DisplayID = models.FormatDisplayID(c.ID)
		c.ProcessNumber = number
		c.AssigneeName = strings.TrimSpace(c.AssigneeName)
		if c.AssigneeName != "" {
			c.CoResponsible = c.AssigneeName
		}
		c.Tramitations = []models.Tramitation{{
			FromUser:  ImportActor,
			ToUser:    c.AssigneeName,
			Timestamp: now,
			Deadline:  c.AssignedDeadline,
		}}
		c.Attachments = []models.Attachment{}
		report.Accepted = append(report.Accepted, c)
	}
	return report
}

// Import reconciles rows against the store and appends the accepted cases
// in one batch, saved once.
func (s *CaseStore) Import(ctx context.Context, rows []models.Case) (ImportReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defaultStatus := ""
	if len(s.state.Statuses) > 0 {
		defaultStatus = s.state.Statuses[0].Name
	}
	prepared := make([]models.Case, len(rows))
	for i, row := range rows {
		c := row.Clone()
		normalizeCaseDates(&c)
		if p, err := normalizePriority(c.Priority, models.PriorityMedium); err == nil {
			c.Priority = p
		} else {
			c.Priority = models.PriorityMedium
		}
		if strings.TrimSpace(c.Status) == "" {
			c.Status = defaultStatus
		}
		c.AssigneeEmail = s.emailFor(strings.TrimSpace(c.AssigneeName), c.AssigneeEmail)
		prepared[i] = c
	}

	report := Reconcile(s.state.Cases, prepared, s.nextCaseID, s.now())
	if len(report.Accepted) == 0 {
		return report, nil
	}

	for _, c := range report.Accepted {
		s.state.Cases = append(s.state.Cases, c.Clone())
	}
	s.log.Infow("Cases imported",
		"accepted", len(report.Accepted),
		"duplicates_in_system", len(report.RejectedDuplicateInSystem),
		"duplicates_in_file", len(report.RejectedDuplicateInFile),
	)
	return report, s.persist(ctx)
}

// ParseSpreadsheet reads case rows from the first sheet of an xlsx file
// whose header row has a process number column.
func ParseSpreadsheet(file io.Reader) ([]models.Case, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open excel file: %v", ErrInvalidInput, err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		if cases, ok := rowsToCases(rows, true); ok {
			return cases, nil
		}
	}
	return nil, fmt.Errorf("%w: no sheet has a process number column", ErrInvalidInput)
}

// ParsePasted reads tab-separated text copied from a spreadsheet. The first
// non-empty line is the header row.
func ParsePasted(text string) ([]models.Case, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		rows = append(rows, strings.Split(line, "\t"))
	}
	cases, ok := rowsToCases(rows, false)
	if !ok {
		return nil, fmt.Errorf("%w: header row has no process number column", ErrInvalidInput)
	}
	return cases, nil
}

// rowsToCases maps the rows under the first non-empty row (the header).
// Blank rows are skipped; rows without a process number are kept so the
// reconciler can count them.
func rowsToCases(rows [][]string, rawCells bool) ([]models.Case, bool) {
	headerAt := -1
	for i, row := range rows {
		if !isBlankRow(row) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, false
	}

	fields := MapHeaders(rows[headerAt])
	hasNumber := false
	for _, f := range fields {
		if f == "processNumber" {
			hasNumber = true
		}
	}
	if !hasNumber {
		return nil, false
	}

	cases := []models.Case{}
	for _, row := range rows[headerAt+1:] {
		if isBlankRow(row) {
			continue
		}
		var c models.Case
		for i, cell := range row {
			if i < len(fields) && fields[i] != "" {
				setImportField(&c, fields[i], cell, rawCells)
			}
		}
		cases = append(cases, c)
	}
	return cases, true
}

func setImportField(c *models.Case, field, value string, rawCells bool) {
	value = strings.TrimSpace(value)
	if dateFields[field] {
		value = importDate(value, rawCells)
	}

	switch field {
	case "processNumber":
		c.ProcessNumber = value
	case "court":
		c.Court = value
	case "author":
		c.Author = value
	case "defendant":
		c.Defendant = value
	case "venue":
		c.Venue = value
	case "subject":
		c.Subject = value
	case "value":
		if m, err := models.ParseMoney(value); err == nil {
			c.Value = m
		}
	case "secret":
		c.Secret = parseYes(value)
	case "appointmentDate":
		c.AppointmentDate = value
	case "startDate":
		c.StartDate = value
	case "assignedDeadline":
		c.AssignedDeadline = value
	case "finalDeadline":
		c.FinalDeadline = value
	case "priority":
		c.Priority = importPriority(value)
	case "phase":
		c.Phase = value
	case "status":
		c.Status = value
	case "name":
		c.AssigneeName = value
	case "email":
		c.AssigneeEmail = value
	case "coResponsible":
		c.CoResponsible = value
	}
}

// importDate converts Excel serial dates found in raw cells; anything else
// goes through NormalizeDate.
func importDate(value string, rawCells bool) string {
	if rawCells {
		if serial, err := strconv.ParseFloat(value, 64); err == nil && serial > 0 {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return t.Format("2006-01-02")
			}
		}
	}
	return NormalizeDate(value)
}

func importPriority(value string) string {
	switch Fold(value) {
	case "high", "alta", "urgente", "urgent":
		return models.PriorityHigh
	case "low", "baixa":
		return models.PriorityLow
	case "":
		return ""
	default:
		return models.PriorityMedium
	}
}

func parseYes(value string) bool {
	switch Fold(value) {
	case "yes", "y", "sim", "s", "true", "1", "x":
		return true
	}
	return false
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// GenerateImportTemplate builds the xlsx template with the recognized
// headers, an example row and the configured lookup values.
func GenerateImportTemplate(tribunals, phases, statuses []models.Lookup) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetCases := "Cases"
	f.SetSheetName("Sheet1", sheetCases)

	for i, col := range importColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetCases, cell, col.Header)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(importColumns))
	f.SetColWidth(sheetCases, "A", lastCol, 20)

	example := map[string]interface{}{
		"processNumber":    "0001234-56.2024.8.26.0100",
		"court":            firstLookup(tribunals, "TJSP"),
		"author":           "Jane Doe",
		"defendant":        "ACME Ltd.",
		"venue":            "1st Civil Court",
		"subject":          "Contract breach",
		"value":            15000.50,
		"secret":           "No",
		"startDate":        time.Now().Format("2006-01-02"),
		"assignedDeadline": time.Now().AddDate(0, 0, 15).Format("2006-01-02"),
		"priority":         models.PriorityMedium,
		"phase":            firstLookup(phases, ""),
		"status":           firstLookup(statuses, ""),
	}
	for i, col := range importColumns {
		if v, ok := example[col.Field]; ok {
			cell, _ := excelize.CoordinatesToCellName(i+1, 2)
			f.SetCellValue(sheetCases, cell, v)
		}
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheetCases, "A1", lastCol+"1", headerStyle)

	// --- Instructions Sheet ---
	sheetInstructions := "Instructions"
	f.NewSheet(sheetInstructions)
	titleStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}})
	f.SetCellValue(sheetInstructions, "A1", "Case import")
	f.SetCellStyle(sheetInstructions, "A1", "A1", titleStyle)
	f.SetCellValue(sheetInstructions, "A3", "- Process Number is required; rows without it are ignored.")
	f.SetCellValue(sheetInstructions, "A4", "- Process numbers already registered, or repeated in this file, are rejected.")
	f.SetCellValue(sheetInstructions, "A5", "- Dates use YYYY-MM-DD or DD/MM/YYYY.")
	f.SetCellValue(sheetInstructions, "A6", "- Priority is High, Medium or Low.")

	row := 8
	for _, group := range []struct {
		title string
		items []models.Lookup
	}{
		{"Tribunals", tribunals},
		{"Phases", phases},
		{"Statuses", statuses},
	} {
		cell := fmt.Sprintf("A%d", row)
		f.SetCellValue(sheetInstructions, cell, group.title)
		f.SetCellStyle(sheetInstructions, cell, cell, titleStyle)
		row++
		for _, item := range group.items {
			f.SetCellValue(sheetInstructions, fmt.Sprintf("A%d", row), item.Name)
			row++
		}
		row++
	}
	f.SetColWidth(sheetInstructions, "A", "A", 80)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel buffer: %w", err)
	}
	return buf, nil
}

// ExportCases writes the cases and their tramitation ledgers to an xlsx workbook
func ExportCases(cases []CaseView) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetCases := "Cases"
	f.SetSheetName("Sheet1", sheetCases)

	headers := []string{"ID"}
	for _, col := range importColumns {
		headers = append(headers, col.Header)
	}
	headers = append(headers, "Deadline Class")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetCases, cell, h)
	}

	sheetLog := "Tramitations"
	f.NewSheet(sheetLog)
	for i, h := range []string{"ID", "Process Number", "From", "To", "Timestamp", "Deadline"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetLog, cell, h)
	}

	logRow := 2
	for r, cv := range cases {
		values := []interface{}{cv.DisplayID}
		for _, col := range importColumns {
			values = append(values, exportValue(&cv.Case, col.Field))
		}
		values = append(values, string(cv.DeadlineClass))

		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheetCases, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}

		for _, t := range cv.Tramitations {
			entry := []interface{}{cv.DisplayID, cv.ProcessNumber, t.FromUser, t.ToUser, t.Timestamp.Format(time.RFC3339), t.Deadline}
			cell, _ := excelize.CoordinatesToCellName(1, logRow)
			if err := f.SetSheetRow(sheetLog, cell, &entry); err != nil {
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
			logRow++
		}
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	f.SetCellStyle(sheetCases, "A1", lastCol+"1", headerStyle)
	f.SetCellStyle(sheetLog, "A1", "F1", headerStyle)
	f.SetColWidth(sheetCases, "A", lastCol, 18)
	f.SetColWidth(sheetLog, "A", "F", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel buffer: %w", err)
	}
	return buf, nil
}

func exportValue(c *models.Case, field string) interface{} {
	switch field {
	case "processNumber":
		return c.ProcessNumber
	case "court":
		return c.Court
	case "author":
		return c.Author
	case "defendant":
		return c.Defendant
	case "venue":
		return c.Venue
	case "subject":
		return c.Subject
	case "value":
		return float64(c.Value)
	case "secret":
		if c.Secret {
			return "Yes"
		}
		return "No"
	case "appointmentDate":
		return c.AppointmentDate
	case "startDate":
		return c.StartDate
	case "assignedDeadline":
		return c.AssignedDeadline
	case "finalDeadline":
		return c.FinalDeadline
	case "priority":
		return c.Priority
	case "phase":
		return c.Phase
	case "status":
		return c.Status
	case "name":
		return c.AssigneeName
	case "email":
		return c.AssigneeEmail
	case "coResponsible":
		return c.CoResponsible
	}
	return ""
}

func firstLookup(list []models.Lookup, fallback string) string {
	if len(list) > 0 {
		return list[0].Name
	}
	return fallback
}
