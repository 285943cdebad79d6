package domain

import "time"

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

type Entity string

const (
	EntityReading Entity = "reading"
	EntityProduct Entity = "product"
	EntityArticle Entity = "article"
)

// Event announces that a reconciled entity was created or updated.
type Event struct {
	RunID     string    `json:"run_id"`
	Source    string    `json:"source"`
	Entity    Entity    `json:"entity"`
	Action    Action    `json:"action"`
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

func ActionFor(created bool) Action {
	if created {
		return ActionCreate
	}
	return ActionUpdate
}
