package service

import (
	"math"
	"sort"
	"strings"

	"github.com/noah-isme/peer-review-dashboard/internal/dto"
	"github.com/noah-isme/peer-review-dashboard/internal/models"
)

const defaultProjectSort = "submittedAt"

// FilterProjects applies search, status filter and ordering to a project listing.
// Search matches title or author case-insensitively. The default order is newest first.
func FilterProjects(projects []models.Project, filter dto.ProjectFilter) []models.Project {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	status := strings.ToLower(strings.TrimSpace(filter.Status))

	filtered := make([]models.Project, 0, len(projects))
	for _, project := range projects {
		if status != "" && project.Status != status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(project.Title), search) &&
			!strings.Contains(strings.ToLower(project.Author), search) {
			continue
		}
		filtered = append(filtered, project)
	}

	sortBy := filter.Sort
	if sortBy == "" {
		sortBy = defaultProjectSort
	}
	desc := filter.Dir != "asc"

	sort.SliceStable(filtered, func(i, j int) bool {
		cmp := compareProjects(filtered[i], filtered[j], sortBy)
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
	return filtered
}

func compareProjects(a, b models.Project, field string) int {
	switch field {
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "author":
		return strings.Compare(a.Author, b.Author)
	case "status":
		return strings.Compare(a.Status, b.Status)
	case "rating":
		return compareOptional(a.Rating, b.Rating)
	default:
		return strings.Compare(a.SubmittedAt, b.SubmittedAt)
	}
}

// compareOptional orders unrated values before rated ones.
func compareOptional(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}

// ReviewerProjects lists the projects assigned to a reviewer. When nothing is assigned,
// every project not authored by the reviewer is offered instead.
func ReviewerProjects(state models.PlatformState, reviewer string) []models.Project {
	assigned := make(map[string]struct{})
	for projectID, reviewers := range state.Assignments {
		for _, name := range reviewers {
			if name == reviewer {
				assigned[projectID] = struct{}{}
				break
			}
		}
	}

	projects := make([]models.Project, 0)
	if len(assigned) > 0 {
		for _, project := range state.Projects {
			if _, ok := assigned[project.ID]; ok {
				projects = append(projects, project)
			}
		}
		return projects
	}

	for _, project := range state.Projects {
		if project.Author != reviewer {
			projects = append(projects, project)
		}
	}
	return projects
}

// StudentProjects returns the projects authored by the student in state order.
func StudentProjects(state models.PlatformState, student string) []models.Project {
	projects := make([]models.Project, 0)
	for _, project := range state.Projects {
		if project.Author == student {
			projects = append(projects, project)
		}
	}
	return projects
}

// SummarizeStudent computes the dashboard statistics for one student.
func SummarizeStudent(state models.PlatformState, student string) dto.StudentSummary {
	projects := StudentProjects(state, student)

	given := 0
	for _, review := range state.Reviews {
		if review.Reviewer == student {
			given++
		}
	}

	assignedCount := 0
	for _, reviewers := range state.Assignments {
		for _, name := range reviewers {
			if name == student {
				assignedCount++
				break
			}
		}
	}

	expected := assignedCount
	if expected == 0 {
		expected = len(projects) * 2
	}

	completion := 0
	if expected > 0 {
		completion = int(math.Min(100, math.Round(float64(given)/float64(expected)*100)))
	}

	return dto.StudentSummary{
		Student:              student,
		ProjectsUploaded:     len(projects),
		ReviewsGiven:         given,
		ExpectedReviews:      expected,
		ReviewsPending:       max(0, expected-given),
		AverageRating:        averageRating(projects),
		CollaborationScore:   min(100, given*15+len(projects)*10),
		CompletionPercentage: completion,
	}
}

func averageRating(projects []models.Project) float64 {
	total := 0.0
	count := 0
	for _, project := range projects {
		if project.Rating == nil {
			continue
		}
		total += *project.Rating
		count++
	}
	if count == 0 {
		return 0
	}
	return math.Round(total/float64(count)*10) / 10
}
