package models

// PlatformState is the full snapshot of the peer-review platform as seen by the dashboard.
// It is replaced wholesale on every successful sync.
type PlatformState struct {
	Projects         []Project           `json:"projects"`
	Reviews          []Review            `json:"reviews"`
	Notifications    []Notification      `json:"notifications"`
	ActivityTimeline []ActivityEntry     `json:"activityTimeline"`
	Assignments      map[string][]string `json:"assignments"`
	TeacherDecisions map[string]Decision `json:"teacherDecisions"`
	ReviewReplies    map[string][]Reply  `json:"reviewReplies"`
}

// EmptyPlatformState returns a state whose containers are all initialised.
func EmptyPlatformState() PlatformState {
	return PlatformState{
		Projects:         []Project{},
		Reviews:          []Review{},
		Notifications:    []Notification{},
		ActivityTimeline: []ActivityEntry{},
		Assignments:      map[string][]string{},
		TeacherDecisions: map[string]Decision{},
		ReviewReplies:    map[string][]Reply{},
	}
}

// ReviewsForProject returns the reviews attached to the given project id.
func (s PlatformState) ReviewsForProject(projectID string) []Review {
	reviews := make([]Review, 0)
	for _, review := range s.Reviews {
		if review.ProjectID == projectID {
			reviews = append(reviews, review)
		}
	}
	return reviews
}

// FileRef describes a file attached to a project. Binary content never leaves the uploader.
type FileRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Review is a peer evaluation of a project.
type Review struct {
	ID        string  `json:"id"`
	ProjectID string  `json:"projectId"`
	Reviewer  string  `json:"reviewer"`
	Rating    float64 `json:"rating"`
	Comment   string  `json:"comment"`
	Date      string  `json:"date"`
}

// Reply is a comment on a review, owned through PlatformState.ReviewReplies.
type Reply struct {
	ID     string `json:"id"`
	Author string `json:"author"`
	Text   string `json:"text"`
	Date   string `json:"date"`
}

// Decision is the teacher's verdict on a project. At most one is live per project.
type Decision struct {
	Action               string  `json:"action"`
	Comment              string  `json:"comment"`
	FinalScore           float64 `json:"finalScore"`
	CompletionPercentage float64 `json:"completionPercentage"`
	SubmittedAt          string  `json:"submittedAt"`
	TeacherName          string  `json:"teacherName"`
}

const (
	// DecisionApprove marks a project as approved.
	DecisionApprove = "approve"
	// DecisionImprove requests improvements.
	DecisionImprove = "improve"
	// DecisionReject rejects the project.
	DecisionReject = "reject"
)

// Notification is a dashboard notice for the current user.
type Notification struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Time    string `json:"time"`
	Read    bool   `json:"read"`
}
