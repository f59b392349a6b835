package models

// BaselinePlatformState returns the seed state shown before anything has been synced.
// A fresh value is built on each call so callers may mutate it freely.
func BaselinePlatformState() PlatformState {
	state := EmptyPlatformState()

	state.Projects = []Project{
		{ID: "1", Title: "E-commerce Website Redesign", Author: "Alex Johnson", Status: ProjectStatusPendingReview, SubmittedAt: "2025-02-18", Files: []FileRef{}},
		{ID: "2", Title: "Mobile App Prototype", Author: "Jamie Lee", Status: ProjectStatusReviewed, SubmittedAt: "2025-02-15", Rating: floatPtr(4.5), Files: []FileRef{}},
		{ID: "3", Title: "API Documentation System", Author: "Sam Wilson", Status: ProjectStatusApproved, SubmittedAt: "2025-02-12", Rating: floatPtr(4.8), Files: []FileRef{}},
		{ID: "4", Title: "Database Schema Design", Author: "Casey Brown", Status: ProjectStatusImprovementRequested, SubmittedAt: "2025-02-14", Rating: floatPtr(3.2), Files: []FileRef{}},
	}

	state.Reviews = []Review{
		{ID: "1", ProjectID: "1", Reviewer: "Jordan Smith", Rating: 4, Comment: "Great structure and clear UX flow. Consider adding more error states.", Date: "2025-02-19"},
		{ID: "2", ProjectID: "1", Reviewer: "Morgan Taylor", Rating: 5, Comment: "Excellent work! Very professional design.", Date: "2025-02-19"},
	}

	state.Notifications = []Notification{
		{ID: "1", Type: "review", Message: "Jordan Smith completed a review on your project", Time: "2 hours ago", Read: false},
		{ID: "2", Type: "teacher", Message: "Dr. Chen left feedback on your submission", Time: "1 day ago", Read: true},
		{ID: "3", Type: "deadline", Message: "Peer review deadline: March 1, 2025", Time: "2 days ago", Read: true},
	}

	state.ActivityTimeline = []ActivityEntry{
		{ID: "1", Action: "Project submitted", Detail: "E-commerce Website Redesign", Time: "Feb 18, 2025", Icon: "upload"},
		{ID: "2", Action: "Assigned reviewers", Detail: "2 peers assigned", Time: "Feb 19, 2025", Icon: "users"},
		{ID: "3", Action: "Review received", Detail: "Jordan Smith - 4/5 stars", Time: "Feb 19, 2025", Icon: "star"},
		{ID: "4", Action: "Review pending", Detail: "Morgan Taylor - In progress", Time: "Feb 19, 2025", Icon: "clock"},
	}

	return state
}

func floatPtr(v float64) *float64 {
	return &v
}
