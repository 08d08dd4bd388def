// campusvoice/models/services.go
package models

import (
	"context"
	"io"
)

// --- Collaborator Interfaces ---

// BackupStore receives finished database backup files.
type BackupStore interface {
	// SaveBackup stores size bytes from r under name and returns where it ended up.
	SaveBackup(ctx context.Context, name string, r io.Reader, size int64) (string, error)
}

// VisitorCounter tallies unique device ids.
type VisitorCounter interface {
	// RecordVisitor adds deviceID to the set (a no-op if already present) and returns the set size.
	RecordVisitor(ctx context.Context, deviceID string) (int64, error)
}

// Assistant is the text-in/text-out AI collaborator.
type Assistant interface {
	Suggest(ctx context.Context, title, description, category string) (string, error)
	PollQuestion(ctx context.Context, title, description string) (string, error)
}

// ProblemDraft is the validated input for creating a problem.
type ProblemDraft struct {
	Title        string
	Description  string
	Category     string
	CreatorID    string
	PollQuestion *string
}

// ReplyDraft is the validated input for adding a reply.
type ReplyDraft struct {
	ProblemID     int64
	Text          string
	CreatorID     string
	ParentReplyID *int64
}
