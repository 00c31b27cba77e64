package firebase

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tgienger/lumina/internal/models"
)

// value is a Firestore typed value. Only the kinds tasks use are modelled.
type value struct {
	StringValue    *string `json:"stringValue,omitempty"`
	TimestampValue *string `json:"timestampValue,omitempty"`
}

type document struct {
	Name       string           `json:"name,omitempty"`
	Fields     map[string]value `json:"fields"`
	CreateTime string           `json:"createTime,omitempty"`
}

func stringValue(s string) value {
	return value{StringValue: &s}
}

func (v value) str() string {
	if v.StringValue == nil {
		return ""
	}
	return *v.StringValue
}

// encodeTask builds the stored fields. createdAt is left to the server
// transform and an unassigned category is omitted.
func encodeTask(t models.Task) map[string]value {
	fields := map[string]value{
		"userId":      stringValue(t.UserID),
		"title":       stringValue(t.Title),
		"description": stringValue(t.Description),
		"status":      stringValue(string(t.Status)),
		"workspaceId": stringValue(t.WorkspaceID),
	}
	if t.CategoryID != "" {
		fields["categoryId"] = stringValue(t.CategoryID)
	}
	return fields
}

func decodeTask(doc document) models.Task {
	f := doc.Fields
	t := models.Task{
		ID:          docID(doc.Name),
		UserID:      f["userId"].str(),
		Title:       f["title"].str(),
		Description: f["description"].str(),
		Status:      models.TaskStatus(f["status"].str()),
		WorkspaceID: f["workspaceId"].str(),
		CategoryID:  f["categoryId"].str(),
	}

	created := doc.CreateTime
	if ts := f["createdAt"].TimestampValue; ts != nil {
		created = *ts
	}
	if created != "" {
		if at, err := time.Parse(time.RFC3339Nano, created); err == nil {
			t.CreatedAt = at
		}
	}
	return t
}

func docID(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// autoID returns a 20 character document id
func autoID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}
