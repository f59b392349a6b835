package report

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/peer-review-dashboard/internal/dto"
	"github.com/noah-isme/peer-review-dashboard/internal/models"
)

var generatedAt = time.Date(2025, 3, 5, 9, 30, 0, 0, time.UTC)

func TestRenderPDFProducesPagedDocument(t *testing.T) {
	lines := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		lines = append(lines, fmt.Sprintf("line %d", i))
	}

	doc, err := RenderPDF(lines)
	require.NoError(t, err)
	require.Equal(t, "application/pdf", ContentType(doc))
	require.True(t, bytes.HasPrefix(doc, []byte("%PDF-")))
	require.Contains(t, string(doc), "%%EOF")
	require.Contains(t, string(doc), "/Count 3")
	require.Contains(t, string(doc), "/BaseFont /Helvetica")
	require.Contains(t, string(doc), "(line 0) Tj")
	require.Contains(t, string(doc), "(line 99) Tj")
}

func TestRenderPDFEmptyInputHasPlaceholderPage(t *testing.T) {
	doc, err := RenderPDF(nil)
	require.NoError(t, err)
	require.Contains(t, string(doc), "/Count 1")
	require.Contains(t, string(doc), "(Report) Tj")
}

func TestPaginate(t *testing.T) {
	lines := make([]string, linesPerPage+1)
	pages := paginate(lines)
	require.Len(t, pages, 2)
	require.Len(t, pages[0], linesPerPage)
	require.Len(t, pages[1], 1)

	require.Equal(t, [][]string{{"Report"}}, paginate(nil))
}

func TestPDFTextKeepsPrintableASCII(t *testing.T) {
	require.Equal(t, `Caf? (draft) C:\tmp  x`, pdfText("Caf\u00e9 (draft) C:\\tmp\t\nx"))
}

func TestFilename(t *testing.T) {
	require.Equal(t, "projects-export.pdf", Filename("projects-export"))
	require.Equal(t, "report.pdf", Filename("report.pdf"))
	require.Equal(t, "report.pdf", Filename("  "))
}

func TestProjectExportLines(t *testing.T) {
	projects := models.BaselinePlatformState().Projects[:2]

	lines := ProjectExportLines(projects, generatedAt)
	require.Equal(t, []string{
		"Teacher Project Export",
		"Generated: Mar 5, 2025 09:30 UTC",
		"",
		"Projects:",
		"1. E-commerce Website Redesign | Student: Alex Johnson | Status: pending review | Submitted: 2025-02-18 | Rating: - | Files: 0",
		"2. Mobile App Prototype | Student: Jamie Lee | Status: reviewed | Submitted: 2025-02-15 | Rating: 4.5 | Files: 0",
	}, lines)
}

func TestStudentReportLines(t *testing.T) {
	score := 88.0
	completion := 75.0
	rating := 4.0
	projects := []models.Project{
		{ID: "1", Title: "Robot", Status: models.ProjectStatusImprovementRequested, Rating: &rating, FinalScore: &score, CompletionPercentage: &completion,
			Files: []models.FileRef{{ID: "f1", Name: "tiny.txt", Size: 10}, {ID: "f2", Name: "big.zip", Size: 5 * 1024 * 1024}}},
		{ID: "2", Title: "Draft", Status: models.ProjectStatusPendingReview},
	}
	summary := dto.StudentSummary{Student: "Dana", ProjectsUploaded: 2, ReviewsGiven: 3, AverageRating: 4}

	lines := StudentReportLines(summary, projects, generatedAt)
	require.Equal(t, []string{
		"Student Peer Review Report",
		"Student: Dana",
		"Generated: Mar 5, 2025 09:30 UTC",
		"",
		"Projects Uploaded: 2",
		"Reviews Given: 3",
		"Average Rating: 4",
		"",
		"Project Summary:",
		"- Robot | Status: improvement requested | Rating: 4 | Teacher Score: 88 | Completion: 75% | Files: 2",
		"    * tiny.txt (1 KB)",
		"    * big.zip (5120 KB)",
		"- Draft | Status: pending review | Rating: - | Teacher Score: - | Completion: -% | Files: 0",
		"    * No files attached",
	}, lines)

	empty := StudentReportLines(dto.StudentSummary{}, nil, generatedAt)
	require.Equal(t, "Student: Student", empty[1])
	require.Equal(t, "Average Rating: -", empty[6])
}
