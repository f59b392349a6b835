package service

import (
	"fmt"

	"github.com/noah-isme/peer-review-dashboard/internal/models"
)

// ReconcileUploadHistory guarantees every project has a "project_uploaded" timeline entry.
// Missing entries are synthesized from the project itself and placed ahead of existing ones.
// The input state is left untouched and running it on its own output changes nothing.
func ReconcileUploadHistory(state models.PlatformState) models.PlatformState {
	uploaded := make(map[string]struct{}, len(state.ActivityTimeline))
	for _, entry := range state.ActivityTimeline {
		if entry.ActionType != models.ActivityTypeProjectUploaded || entry.ProjectID == nil || *entry.ProjectID == "" {
			continue
		}
		uploaded[*entry.ProjectID] = struct{}{}
	}

	synthetic := make([]models.ActivityEntry, 0)
	for _, project := range state.Projects {
		if _, ok := uploaded[project.ID]; ok {
			continue
		}
		synthetic = append(synthetic, syntheticUploadEntry(project))
		uploaded[project.ID] = struct{}{}
	}

	timeline := make([]models.ActivityEntry, 0, len(synthetic)+len(state.ActivityTimeline))
	timeline = append(timeline, synthetic...)
	timeline = append(timeline, state.ActivityTimeline...)

	reconciled := state
	reconciled.ActivityTimeline = timeline
	return reconciled
}

func syntheticUploadEntry(project models.Project) models.ActivityEntry {
	projectID := project.ID
	return models.ActivityEntry{
		ID:           "synthetic-upload-" + project.ID,
		Action:       "Project uploaded",
		Detail:       fmt.Sprintf("%s uploaded %s (%d files)", project.Author, project.Title, len(project.Files)),
		Time:         project.SubmittedAt,
		Icon:         "upload",
		ProjectID:    &projectID,
		ProjectTitle: project.Title,
		StudentName:  project.Author,
		ActorName:    project.Author,
		ActorRole:    "student",
		ActionType:   models.ActivityTypeProjectUploaded,
	}
}
