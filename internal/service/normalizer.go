package service

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/cast"

	"github.com/noah-isme/peer-review-dashboard/internal/models"
)

const (
	untitledFileName = "Untitled file"
	// Largest float64 that still holds every smaller integer exactly.
	maxExactInteger = 1 << 53
	maxFileSize     = maxExactInteger
)

var (
	// ErrMalformedPayload indicates a payload that cannot be coerced into the platform model.
	ErrMalformedPayload = errors.New("malformed platform payload")
	// ErrPayloadDecode indicates the payload bytes are not valid JSON.
	ErrPayloadDecode = errors.New("platform payload is not valid JSON")
)

//go:embed schemas/platform_state.json
var platformStateSchema string

// MalformedPayloadError pinpoints the field that failed validation or coercion.
type MalformedPayloadError struct {
	Path   string
	Reason string
}

func (e *MalformedPayloadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", ErrMalformedPayload.Error(), e.Reason)
	}
	return fmt.Sprintf("%s at %s: %s", ErrMalformedPayload.Error(), e.Path, e.Reason)
}

// Is lets errors.Is match ErrMalformedPayload.
func (e *MalformedPayloadError) Is(target error) bool {
	return target == ErrMalformedPayload
}

func malformed(path, reason string) error {
	return &MalformedPayloadError{Path: path, Reason: reason}
}

// Normalizer converts loosely typed backend payloads into the canonical platform model.
type Normalizer struct {
	schema *jsonschema.Schema
}

// NewNormalizer compiles the payload schema.
func NewNormalizer() (*Normalizer, error) {
	schema, err := jsonschema.CompileString("platform_state.json", platformStateSchema)
	if err != nil {
		return nil, fmt.Errorf("compile platform state schema: %w", err)
	}
	return &Normalizer{schema: schema}, nil
}

// DecodePayload parses a JSON object keeping numbers as json.Number so ids keep their precision.
func DecodePayload(data []byte) (map[string]interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var value interface{}
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadDecode, err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after the JSON value", ErrPayloadDecode)
	}

	object, ok := value.(map[string]interface{})
	if !ok {
		return nil, malformed("", "expected a JSON object")
	}
	return object, nil
}

// Normalize validates the payload against the platform schema and coerces every entity.
func (n *Normalizer) Normalize(payload map[string]interface{}) (models.PlatformState, error) {
	if payload == nil {
		return models.PlatformState{}, malformed("", "payload is empty")
	}

	if err := n.schema.Validate(payload); err != nil {
		return models.PlatformState{}, schemaError(err)
	}

	state := models.EmptyPlatformState()
	var err error

	if state.Projects, err = normalizeList(payload["projects"], "projects", normalizeProject); err != nil {
		return models.PlatformState{}, err
	}
	if state.Reviews, err = normalizeList(payload["reviews"], "reviews", normalizeReview); err != nil {
		return models.PlatformState{}, err
	}
	if state.Notifications, err = normalizeList(payload["notifications"], "notifications", normalizeNotification); err != nil {
		return models.PlatformState{}, err
	}
	if state.ActivityTimeline, err = normalizeList(payload["activityTimeline"], "activityTimeline", normalizeActivity); err != nil {
		return models.PlatformState{}, err
	}
	if state.Assignments, err = normalizeAssignments(payload["assignments"]); err != nil {
		return models.PlatformState{}, err
	}
	if state.TeacherDecisions, err = normalizeDecisions(payload["teacherDecisions"]); err != nil {
		return models.PlatformState{}, err
	}
	if state.ReviewReplies, err = normalizeReplies(payload["reviewReplies"]); err != nil {
		return models.PlatformState{}, err
	}

	return state, nil
}

// NormalizeProject coerces a single project payload, such as the body returned on creation.
func (n *Normalizer) NormalizeProject(raw map[string]interface{}) (models.Project, error) {
	return normalizeProject(raw, "project")
}

// NormalizeReview coerces a single review payload.
func (n *Normalizer) NormalizeReview(raw map[string]interface{}) (models.Review, error) {
	return normalizeReview(raw, "review")
}

func schemaError(err error) error {
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return malformed("", err.Error())
	}
	for len(validationErr.Causes) > 0 {
		validationErr = validationErr.Causes[0]
	}
	return malformed(validationErr.InstanceLocation, validationErr.Message)
}

func normalizeList[T any](value interface{}, path string, fn func(map[string]interface{}, string) (T, error)) ([]T, error) {
	items := make([]T, 0)
	if value == nil {
		return items, nil
	}
	raw, ok := value.([]interface{})
	if !ok {
		return nil, malformed(path, "expected an array")
	}
	for i, item := range raw {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		object, ok := item.(map[string]interface{})
		if !ok {
			return nil, malformed(itemPath, "expected an object")
		}
		normalized, err := fn(object, itemPath)
		if err != nil {
			return nil, err
		}
		items = append(items, normalized)
	}
	return items, nil
}

func normalizeProject(raw map[string]interface{}, path string) (models.Project, error) {
	id, err := requiredID(raw, "id", path)
	if err != nil {
		return models.Project{}, err
	}

	project := models.Project{ID: id}
	fields := []struct {
		key    string
		target *string
	}{
		{"title", &project.Title},
		{"author", &project.Author},
		{"description", &project.Description},
		{"status", &project.Status},
		{"submittedAt", &project.SubmittedAt},
	}
	for _, field := range fields {
		if *field.target, err = textField(raw, field.key, path); err != nil {
			return models.Project{}, err
		}
	}
	project.Status = strings.ToLower(strings.TrimSpace(project.Status))

	if project.Rating, err = optionalNumber(raw, "rating", path); err != nil {
		return models.Project{}, err
	}
	if project.FinalScore, err = optionalNumber(raw, "finalScore", path); err != nil {
		return models.Project{}, err
	}
	if project.CompletionPercentage, err = optionalNumber(raw, "completionPercentage", path); err != nil {
		return models.Project{}, err
	}

	if project.Files, err = normalizeFiles(raw["files"], id, path+".files"); err != nil {
		return models.Project{}, err
	}

	return project, nil
}

func normalizeFiles(value interface{}, projectID, path string) ([]models.FileRef, error) {
	files := make([]models.FileRef, 0)
	if value == nil {
		return files, nil
	}
	raw, ok := value.([]interface{})
	if !ok {
		return nil, malformed(path, "expected an array")
	}

	for i, item := range raw {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		switch file := item.(type) {
		case string:
			files = append(files, models.FileRef{ID: fmt.Sprintf("legacy-%d", i), Name: file, Size: 0})
		case map[string]interface{}:
			id, err := textField(file, "id", itemPath)
			if err != nil {
				return nil, err
			}
			if id == "" {
				id = fmt.Sprintf("%s-file-%d", projectID, i)
			}
			name, err := textField(file, "name", itemPath)
			if err != nil {
				return nil, err
			}
			if name == "" {
				name = untitledFileName
			}
			size, err := optionalNumber(file, "size", itemPath)
			if err != nil {
				return nil, err
			}
			var sizeBytes int64
			if size != nil {
				if *size < 0 || *size != math.Trunc(*size) || *size > maxFileSize {
					return nil, malformed(itemPath+".size", "must be a whole number of bytes")
				}
				sizeBytes = int64(*size)
			}
			files = append(files, models.FileRef{ID: id, Name: name, Size: sizeBytes})
		default:
			return nil, malformed(itemPath, "expected a file name or object")
		}
	}
	return files, nil
}

func normalizeReview(raw map[string]interface{}, path string) (models.Review, error) {
	id, err := requiredID(raw, "id", path)
	if err != nil {
		return models.Review{}, err
	}
	projectID, err := requiredID(raw, "projectId", path)
	if err != nil {
		return models.Review{}, err
	}

	review := models.Review{ID: id, ProjectID: projectID}
	if review.Reviewer, err = textField(raw, "reviewer", path); err != nil {
		return models.Review{}, err
	}
	if review.Comment, err = textField(raw, "comment", path); err != nil {
		return models.Review{}, err
	}
	if review.Date, err = textField(raw, "date", path); err != nil {
		return models.Review{}, err
	}
	rating, err := optionalNumber(raw, "rating", path)
	if err != nil {
		return models.Review{}, err
	}
	if rating != nil {
		review.Rating = *rating
	}
	return review, nil
}

func normalizeNotification(raw map[string]interface{}, path string) (models.Notification, error) {
	notification := models.Notification{}
	var err error
	fields := []struct {
		key    string
		target *string
	}{
		{"id", &notification.ID},
		{"type", &notification.Type},
		{"message", &notification.Message},
		{"time", &notification.Time},
	}
	for _, field := range fields {
		if *field.target, err = textField(raw, field.key, path); err != nil {
			return models.Notification{}, err
		}
	}

	if value, ok := raw["read"]; ok && value != nil {
		read, err := cast.ToBoolE(value)
		if err != nil {
			return models.Notification{}, malformed(path+".read", err.Error())
		}
		notification.Read = read
	}
	return notification, nil
}

func normalizeActivity(raw map[string]interface{}, path string) (models.ActivityEntry, error) {
	entry := models.ActivityEntry{}
	var err error
	fields := []struct {
		key    string
		target *string
	}{
		{"id", &entry.ID},
		{"action", &entry.Action},
		{"detail", &entry.Detail},
		{"time", &entry.Time},
		{"icon", &entry.Icon},
		{"projectTitle", &entry.ProjectTitle},
		{"studentName", &entry.StudentName},
		{"actorName", &entry.ActorName},
		{"actorRole", &entry.ActorRole},
		{"actionType", &entry.ActionType},
	}
	for _, field := range fields {
		if *field.target, err = textField(raw, field.key, path); err != nil {
			return models.ActivityEntry{}, err
		}
	}

	if value := raw["projectId"]; value != nil {
		projectID, err := scalarString(value, path+".projectId")
		if err != nil {
			return models.ActivityEntry{}, err
		}
		entry.ProjectID = &projectID
	}
	return entry, nil
}

func normalizeAssignments(value interface{}) (map[string][]string, error) {
	assignments := map[string][]string{}
	if value == nil {
		return assignments, nil
	}
	raw, ok := value.(map[string]interface{})
	if !ok {
		return nil, malformed("assignments", "expected an object")
	}
	for projectID, reviewers := range raw {
		path := "assignments." + projectID
		names := make([]string, 0)
		if reviewers != nil {
			list, ok := reviewers.([]interface{})
			if !ok {
				return nil, malformed(path, "expected an array")
			}
			for i, reviewer := range list {
				name, err := scalarString(reviewer, fmt.Sprintf("%s[%d]", path, i))
				if err != nil {
					return nil, err
				}
				names = append(names, name)
			}
		}
		assignments[projectID] = names
	}
	return assignments, nil
}

func normalizeDecisions(value interface{}) (map[string]models.Decision, error) {
	decisions := map[string]models.Decision{}
	if value == nil {
		return decisions, nil
	}
	raw, ok := value.(map[string]interface{})
	if !ok {
		return nil, malformed("teacherDecisions", "expected an object")
	}
	for projectID, item := range raw {
		path := "teacherDecisions." + projectID
		object, ok := item.(map[string]interface{})
		if !ok {
			return nil, malformed(path, "expected an object")
		}

		decision := models.Decision{}
		var err error
		fields := []struct {
			key    string
			target *string
		}{
			{"action", &decision.Action},
			{"comment", &decision.Comment},
			{"submittedAt", &decision.SubmittedAt},
			{"teacherName", &decision.TeacherName},
		}
		for _, field := range fields {
			if *field.target, err = textField(object, field.key, path); err != nil {
				return nil, err
			}
		}
		decision.Action = strings.ToLower(strings.TrimSpace(decision.Action))

		score, err := optionalNumber(object, "finalScore", path)
		if err != nil {
			return nil, err
		}
		if score != nil {
			decision.FinalScore = *score
		}
		completion, err := optionalNumber(object, "completionPercentage", path)
		if err != nil {
			return nil, err
		}
		if completion != nil {
			decision.CompletionPercentage = *completion
		}

		decisions[projectID] = decision
	}
	return decisions, nil
}

func normalizeReplies(value interface{}) (map[string][]models.Reply, error) {
	replies := map[string][]models.Reply{}
	if value == nil {
		return replies, nil
	}
	raw, ok := value.(map[string]interface{})
	if !ok {
		return nil, malformed("reviewReplies", "expected an object")
	}
	for reviewID, items := range raw {
		list, err := normalizeList(items, "reviewReplies."+reviewID, normalizeReply)
		if err != nil {
			return nil, err
		}
		replies[reviewID] = list
	}
	return replies, nil
}

func normalizeReply(raw map[string]interface{}, path string) (models.Reply, error) {
	reply := models.Reply{}
	var err error
	fields := []struct {
		key    string
		target *string
	}{
		{"id", &reply.ID},
		{"author", &reply.Author},
		{"text", &reply.Text},
		{"date", &reply.Date},
	}
	for _, field := range fields {
		if *field.target, err = textField(raw, field.key, path); err != nil {
			return models.Reply{}, err
		}
	}
	return reply, nil
}

func requiredID(raw map[string]interface{}, key, path string) (string, error) {
	value, ok := raw[key]
	if !ok || value == nil {
		return "", malformed(path+"."+key, "is required")
	}
	id, err := scalarString(value, path+"."+key)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(id) == "" {
		return "", malformed(path+"."+key, "must not be blank")
	}
	return id, nil
}

func textField(raw map[string]interface{}, key, path string) (string, error) {
	value := raw[key]
	if value == nil {
		return "", nil
	}
	return scalarString(value, path+"."+key)
}

func scalarString(value interface{}, path string) (string, error) {
	switch v := value.(type) {
	case map[string]interface{}, []interface{}:
		return "", malformed(path, fmt.Sprintf("expected a scalar, got %T", value))
	case json.Number:
		return canonicalNumber(v), nil
	}
	text, err := cast.ToStringE(value)
	if err != nil {
		return "", malformed(path, err.Error())
	}
	return text, nil
}

// canonicalNumber renders integral numbers without a fraction or exponent so
// 1, 1.0 and 1e0 all compare equal as identifiers.
func canonicalNumber(number json.Number) string {
	if i, err := number.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	f, err := number.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > maxExactInteger {
		return number.String()
	}
	return strconv.FormatInt(int64(f), 10)
}

func optionalNumber(raw map[string]interface{}, key, path string) (*float64, error) {
	value := raw[key]
	if value == nil {
		return nil, nil
	}
	if text, ok := value.(string); ok && strings.TrimSpace(text) == "" {
		return nil, nil
	}
	number, err := cast.ToFloat64E(value)
	if err != nil {
		return nil, malformed(path+"."+key, err.Error())
	}
	return &number, nil
}
