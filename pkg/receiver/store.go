package receiver

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a submission id is unknown.
	ErrNotFound = errors.New("receiver: submission not found")
	// ErrInvalidSubmission is returned when a submission cannot be stored.
	ErrInvalidSubmission = errors.New("receiver: invalid submission")
)

// StoredFile is an uploaded file kept with its submission.
type StoredFile struct {
	Field       string `json:"field" bson:"field"`
	Name        string `json:"name" bson:"name"`
	ContentType string `json:"contentType" bson:"contentType"`
	Size        int64  `json:"size" bson:"size"`
	Data        []byte `json:"-" bson:"data"`
}

// Submission is one accepted form post. Values holds the entries that map
// onto the definition's fields; Extra holds everything else the client sent,
// such as static payload entries.
type Submission struct {
	ID        string            `json:"id" bson:"_id"`
	FormID    string            `json:"formId" bson:"formId"`
	Values    map[string]any    `json:"values" bson:"values"`
	Extra     map[string]string `json:"extra,omitempty" bson:"extra,omitempty"`
	Files     []StoredFile      `json:"files,omitempty" bson:"files,omitempty"`
	CreatedAt time.Time         `json:"createdAt" bson:"createdAt"`
}

// Store persists submissions.
type Store interface {
	Save(ctx context.Context, sub *Submission) error
	Get(ctx context.Context, id string) (*Submission, error)
	List(ctx context.Context, formID string) ([]*Submission, error)
}

// Pinger is implemented by stores that can report backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

func validate(sub *Submission) error {
	if sub == nil || sub.ID == "" || sub.FormID == "" {
		return ErrInvalidSubmission
	}
	return nil
}
