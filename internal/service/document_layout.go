package service

import (
	"fmt"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/pkg/export"
)

const dateLayout = "02 Jan 2006"

var transcriptHeaders = []string{"Year", "Discipline", "Hours", "Grade", "Attendance %", "Result"}

// Layout selects what the renderer prints for a payload snapshot.
func Layout(payload *models.DocumentPayload, verificationCode, hash string) export.Document {
	doc := export.Document{
		Institution:      payload.Tenant.Name,
		Title:            payload.Kind.Title(),
		Number:           payload.Number,
		IssuedAt:         payload.IssuedAt,
		VerificationCode: verificationCode,
		Hash:             hash,
		Identity:         identityFields(payload.Student),
	}

	switch payload.Kind {
	case models.DocumentKindEnrollmentDeclaration:
		doc.Paragraphs = append(doc.Paragraphs, fmt.Sprintf("We declare that %s is enrolled %s.",
			payload.Student.FullName, enrollmentPhrase(payload.Enrollment)))
	case models.DocumentKindAttendanceDeclaration:
		doc.Paragraphs = append(doc.Paragraphs, fmt.Sprintf("We declare that %s attends classes %s with the attendance below.",
			payload.Student.FullName, enrollmentPhrase(payload.Enrollment)))
		table := export.Dataset{Headers: []string{"Discipline", "Hours", "Attendance %"}}
		for _, line := range payload.Attendance {
			table.Rows = append(table.Rows, map[string]string{
				"Discipline":   line.Discipline,
				"Hours":        line.WorkloadHours,
				"Attendance %": line.AttendancePct,
			})
		}
		doc.Table = &table
	case models.DocumentKindTranscript, models.DocumentKindCertificate:
		if payload.Kind == models.DocumentKindCertificate && payload.Conclusion != nil {
			doc.Paragraphs = append(doc.Paragraphs, certificatePhrase(payload))
		}
		doc.Table = historyTable(payload.History)
		if payload.Summary != nil {
			doc.Summary = summaryFields(*payload.Summary)
		}
	}
	return doc
}

func identityFields(s models.PayloadStudent) []export.Field {
	fields := []export.Field{
		{Label: "Student", Value: s.FullName},
		{Label: "Registration", Value: s.RegistrationNumber},
	}
	if s.NationalID != nil {
		fields = append(fields, export.Field{Label: "National ID", Value: *s.NationalID})
	}
	if s.BirthDate != nil {
		fields = append(fields, export.Field{Label: "Birth date", Value: s.BirthDate.Format(dateLayout)})
	}
	return fields
}

func enrollmentPhrase(e *models.PayloadEnrollment) string {
	if e == nil {
		return ""
	}
	phrase := "in the academic year " + e.AcademicYear
	if e.Course != nil {
		phrase += ", course " + *e.Course
	}
	if e.Class != nil {
		phrase += ", class " + *e.Class
	}
	return phrase
}

func certificatePhrase(p *models.DocumentPayload) string {
	phrase := fmt.Sprintf("We certify that %s has concluded the studies recorded below", p.Student.FullName)
	if p.Conclusion.ConcludedAt != nil {
		phrase += " on " + p.Conclusion.ConcludedAt.Format(dateLayout)
	}
	if p.Conclusion.OfficialActNumber != nil {
		phrase += ", official act " + *p.Conclusion.OfficialActNumber
	}
	if p.Conclusion.TerminalNumber != nil {
		phrase += ", record " + *p.Conclusion.TerminalNumber
	}
	return phrase + "."
}

func historyTable(rows []models.HistoryRow) *export.Dataset {
	table := export.Dataset{Headers: transcriptHeaders}
	for _, row := range rows {
		finalGrade := "-"
		if row.FinalGrade.Valid {
			finalGrade = row.FinalGrade.Decimal.StringFixed(2)
		}
		attendance := row.AttendancePct.StringFixed(2)
		result := string(row.Result)
		if row.Equivalency != nil {
			attendance = "-"
			result = "EQUIVALENCY (" + row.Equivalency.Origin + ")"
		}
		table.Rows = append(table.Rows, map[string]string{
			"Year":         row.AcademicYear,
			"Discipline":   row.DisciplineName,
			"Hours":        row.WorkloadHours.String(),
			"Grade":        finalGrade,
			"Attendance %": attendance,
			"Result":       result,
		})
	}
	return &table
}

func summaryFields(m models.ConclusionMetrics) []export.Field {
	grade := "-"
	if m.MeanFinalGrade.Valid {
		grade = m.MeanFinalGrade.Decimal.StringFixed(2)
	}
	return []export.Field{
		{Label: "Completed subjects", Value: fmt.Sprintf("%d", m.CompletedSubjects)},
		{Label: "Total hours", Value: m.TotalWorkloadHours.String()},
		{Label: "Mean attendance %", Value: m.MeanAttendance.StringFixed(2)},
		{Label: "Mean final grade", Value: grade},
	}
}
