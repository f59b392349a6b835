package models

// ActivityTypeProjectUploaded tags timeline entries that record a project upload.
const ActivityTypeProjectUploaded = "project_uploaded"

// ActivityTypeTeacherDecision tags timeline entries that record a teacher verdict.
const ActivityTypeTeacherDecision = "teacher_decision"

// ActivityEntry is one item of the activity timeline. Order is insertion order.
type ActivityEntry struct {
	ID           string  `json:"id"`
	Action       string  `json:"action"`
	Detail       string  `json:"detail"`
	Time         string  `json:"time"`
	Icon         string  `json:"icon"`
	ProjectID    *string `json:"projectId"`
	ProjectTitle string  `json:"projectTitle"`
	StudentName  string  `json:"studentName"`
	ActorName    string  `json:"actorName"`
	ActorRole    string  `json:"actorRole"`
	ActionType   string  `json:"actionType"`
}
