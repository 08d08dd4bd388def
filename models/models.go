// campusvoice/models/models.go
package models

import (
	"time"
)

// --- Core Data Models ---

// Problem is a reported campus issue. Score is a denormalized counter that
// only the vote ledger mutates.
type Problem struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Score        int       `json:"score"`
	Solved       bool      `json:"solved"`
	CreatorID    string    `json:"creator_id"`
	CreatedAt    time.Time `json:"created_at"`
	PollQuestion *string   `json:"poll_question"`
}

// ProblemView is the read model returned by listings: a problem joined with
// its flat reply list and the live poll tallies.
type ProblemView struct {
	Problem
	TimeAgo string  `json:"time_ago"`
	Replies []Reply `json:"replies"`
	PollYes int     `json:"poll_yes"`
	PollNo  int     `json:"poll_no"`
}

type Reply struct {
	ID            int64     `json:"id"`
	ProblemID     int64     `json:"problem_id"`
	Text          string    `json:"text"`
	CreatorID     string    `json:"creator_id"`
	ParentReplyID *int64    `json:"parent_reply_id"`
	CreatedAt     time.Time `json:"created_at"`
	TimeAgo       string    `json:"time_ago,omitempty"`
}

// ReplyNode is one reply with its children attached, as produced by BuildReplyForest.
type ReplyNode struct {
	Reply
	Children []*ReplyNode `json:"children"`
}

// VoteType is the direction of a score vote.
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

func (v VoteType) Valid() bool { return v == VoteUp || v == VoteDown }

// PollOption is an answer to a problem's yes/no poll.
type PollOption string

const (
	PollYes PollOption = "yes"
	PollNo  PollOption = "no"
)

func (o PollOption) Valid() bool { return o == PollYes || o == PollNo }

// Vote is the current vote of one device on one problem.
type Vote struct {
	ProblemID int64    `json:"problem_id"`
	VoteType  VoteType `json:"vote_type"`
}

// PollVote is the current poll answer of one device on one problem.
type PollVote struct {
	ProblemID  int64      `json:"problem_id"`
	VoteOption PollOption `json:"vote_option"`
}

// Sort orders accepted by problem listings.
const (
	SortTop    = "top"
	SortRecent = "recent"
)

// ListOptions narrows and orders a problem listing. Zero value lists everything by score.
type ListOptions struct {
	Category string
	Sort     string
	Limit    int
	Offset   int
}

// Categories is the response shape for the category listing.
type Categories struct {
	Standard []string `json:"standard"`
	Custom   []string `json:"custom"`
}
