package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/peer-review-dashboard/internal/dto"
	"github.com/noah-isme/peer-review-dashboard/internal/models"
)

const generatedLayout = "Jan 2, 2006 15:04 MST"

// ProjectExportLines lists every project on one line, in the order given.
func ProjectExportLines(projects []models.Project, generatedAt time.Time) []string {
	lines := []string{
		"Teacher Project Export",
		"Generated: " + generatedAt.Format(generatedLayout),
		"",
		"Projects:",
	}
	for i, project := range projects {
		lines = append(lines, fmt.Sprintf("%d. %s | Student: %s | Status: %s | Submitted: %s | Rating: %s | Files: %d",
			i+1,
			project.Title,
			project.Author,
			statusLabel(project.Status),
			project.SubmittedAt,
			optionalNumber(project.Rating),
			len(project.Files),
		))
	}
	return lines
}

// StudentReportLines summarises one student's projects and review activity.
func StudentReportLines(summary dto.StudentSummary, projects []models.Project, generatedAt time.Time) []string {
	student := summary.Student
	if student == "" {
		student = "Student"
	}

	average := "-"
	if summary.AverageRating != 0 {
		average = formatNumber(summary.AverageRating)
	}

	lines := []string{
		"Student Peer Review Report",
		"Student: " + student,
		"Generated: " + generatedAt.Format(generatedLayout),
		"",
		fmt.Sprintf("Projects Uploaded: %d", summary.ProjectsUploaded),
		fmt.Sprintf("Reviews Given: %d", summary.ReviewsGiven),
		"Average Rating: " + average,
		"",
		"Project Summary:",
	}

	for _, project := range projects {
		score := "-"
		if project.IsGraded() {
			score = formatNumber(*project.FinalScore)
		}
		lines = append(lines, fmt.Sprintf("- %s | Status: %s | Rating: %s | Teacher Score: %s | Completion: %s%% | Files: %d",
			project.Title,
			statusLabel(project.Status),
			optionalNumber(project.Rating),
			score,
			optionalNumber(project.CompletionPercentage),
			len(project.Files),
		))
		if len(project.Files) == 0 {
			lines = append(lines, "    * No files attached")
			continue
		}
		for _, file := range project.Files {
			lines = append(lines, fmt.Sprintf("    * %s (%d KB)", file.Name, sizeInKB(file.Size)))
		}
	}
	return lines
}

func statusLabel(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}

func optionalNumber(value *float64) string {
	if value == nil {
		return "-"
	}
	return formatNumber(*value)
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func sizeInKB(size int64) int64 {
	return max(1, int64(math.Round(float64(size)/1024)))
}
