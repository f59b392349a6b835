package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/peer-review-dashboard/internal/dto"
	"github.com/noah-isme/peer-review-dashboard/internal/models"
)

func projectIDs(projects []models.Project) []string {
	ids := make([]string, 0, len(projects))
	for _, project := range projects {
		ids = append(ids, project.ID)
	}
	return ids
}

func TestFilterProjectsSearchSortAndStatus(t *testing.T) {
	projects := models.BaselinePlatformState().Projects

	require.Equal(t, []string{"1", "2", "4", "3"}, projectIDs(FilterProjects(projects, dto.ProjectFilter{})))
	require.Equal(t, []string{"3", "4", "1", "2"}, projectIDs(FilterProjects(projects, dto.ProjectFilter{Sort: "title", Dir: "asc"})))
	require.Equal(t, []string{"1", "4", "2", "3"}, projectIDs(FilterProjects(projects, dto.ProjectFilter{Sort: "rating", Dir: "asc"})))

	require.Equal(t, []string{"2"}, projectIDs(FilterProjects(projects, dto.ProjectFilter{Search: "jamie"})))
	require.Equal(t, []string{"4"}, projectIDs(FilterProjects(projects, dto.ProjectFilter{Search: "SCHEMA"})))
	require.Equal(t, []string{"3"}, projectIDs(FilterProjects(projects, dto.ProjectFilter{Status: "Approved"})))
	require.Empty(t, FilterProjects(projects, dto.ProjectFilter{Search: "nobody"}))
}

func TestReviewerProjectsPrefersAssignments(t *testing.T) {
	state := models.BaselinePlatformState()

	require.Equal(t, []string{"2", "3", "4"}, projectIDs(ReviewerProjects(state, "Alex Johnson")))

	state.Assignments = map[string][]string{"3": {"Alex Johnson"}, "4": {"Jamie Lee"}}
	require.Equal(t, []string{"3"}, projectIDs(ReviewerProjects(state, "Alex Johnson")))
}

func TestSummarizeStudentWithoutAssignments(t *testing.T) {
	state := models.BaselinePlatformState()

	summary := SummarizeStudent(state, "Jordan Smith")
	require.Equal(t, dto.StudentSummary{
		Student:            "Jordan Smith",
		ReviewsGiven:       1,
		CollaborationScore: 15,
	}, summary)

	summary = SummarizeStudent(state, "Jamie Lee")
	require.Equal(t, 1, summary.ProjectsUploaded)
	require.Equal(t, 2, summary.ExpectedReviews)
	require.Equal(t, 2, summary.ReviewsPending)
	require.InDelta(t, 4.5, summary.AverageRating, 0.0001)
	require.Equal(t, 10, summary.CollaborationScore)
	require.Equal(t, 0, summary.CompletionPercentage)
}
