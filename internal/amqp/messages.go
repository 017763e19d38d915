package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"chapterhub/internal/core"
)

// TaskStatusChangedMessage is published after a task's status was cycled.
// The worker turns it into a notification for the assignee.
type TaskStatusChangedMessage struct {
	MessageID  string          `json:"message_id"`
	TaskID     string          `json:"task_id"`
	ChapterID  string          `json:"chapter_id"`
	AssigneeID string          `json:"assignee_id"`
	ActorID    string          `json:"actor_id,omitempty"`
	Title      string          `json:"title"`
	From       core.TaskStatus `json:"from"`
	To         core.TaskStatus `json:"to"`
	Timestamp  time.Time       `json:"timestamp"`
}

func NewTaskStatusChangedMessage(task core.Task, from core.TaskStatus, actorID string) *TaskStatusChangedMessage {
	return &TaskStatusChangedMessage{
		MessageID:  uuid.NewString(),
		TaskID:     task.ID,
		ChapterID:  task.ChapterID,
		AssigneeID: task.AssigneeID,
		ActorID:    actorID,
		Title:      task.Title,
		From:       from,
		To:         task.Status,
		Timestamp:  time.Now(),
	}
}

func (m *TaskStatusChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TaskStatusChangedMessageFromJSON(data []byte) (*TaskStatusChangedMessage, error) {
	var msg TaskStatusChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.TaskID == "" {
		return nil, fmt.Errorf("message %s has no task id", msg.MessageID)
	}
	if !msg.To.Valid() {
		return nil, fmt.Errorf("message %s: %w", msg.MessageID, core.ErrUnknownTaskStatus)
	}
	return &msg, nil
}
