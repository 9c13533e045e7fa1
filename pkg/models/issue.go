package models

import "time"

// Issue is the subset of a bugtracker ticket this system reads and writes.
type Issue struct {
	ID           int           `json:"id"`
	ProjectID    int           `json:"project_id"`
	TrackerID    int           `json:"tracker_id"`
	StatusID     int           `json:"status_id"`
	Subject      string        `json:"subject"`
	Description  string        `json:"description"`
	CustomFields []CustomField `json:"custom_fields"`
	CreatedOn    time.Time     `json:"created_on"`
}

// CustomField is a bugtracker custom field value.
type CustomField struct {
	ID    int    `json:"id"`
	Name  string `json:"name,omitempty"`
	Value string `json:"value"`
}

// CustomFieldValue returns the value of the custom field with the given id.
func (i *Issue) CustomFieldValue(id int) (string, bool) {
	for _, cf := range i.CustomFields {
		if cf.ID == id {
			return cf.Value, true
		}
	}
	return "", false
}

// IssueRelation links two issues (e.g. "duplicates").
type IssueRelation struct {
	IssueID   int    `json:"issue_id"`
	IssueToID int    `json:"issue_to_id"`
	Type      string `json:"relation_type"`
}
