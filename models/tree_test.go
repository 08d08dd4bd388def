// campusvoice/models/tree_test.go
package models

import (
	"testing"
)

func ptr(id int64) *int64 { return &id }

func reply(id int64, parent *int64) Reply {
	return Reply{ID: id, ProblemID: 1, ParentReplyID: parent}
}

func TestBuildReplyForest(t *testing.T) {
	replies := []Reply{
		reply(1, nil),
		reply(2, ptr(1)),
		reply(3, ptr(2)),
		reply(4, nil),
		reply(5, ptr(1)),
	}
	forest := BuildReplyForest(replies)

	if len(forest) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(forest))
	}
	if forest[0].ID != 1 || forest[1].ID != 4 {
		t.Errorf("roots out of order: %d, %d", forest[0].ID, forest[1].ID)
	}
	r1 := forest[0]
	if len(r1.Children) != 2 || r1.Children[0].ID != 2 || r1.Children[1].ID != 5 {
		t.Fatalf("reply 1 children wrong: %+v", r1.Children)
	}
	if len(r1.Children[0].Children) != 1 || r1.Children[0].Children[0].ID != 3 {
		t.Errorf("reply 3 should hang off reply 2")
	}
	if n := CountReplies(forest); n != len(replies) {
		t.Errorf("CountReplies = %d, want %d", n, len(replies))
	}
}

func TestBuildReplyForestCycles(t *testing.T) {
	testCases := []struct {
		name    string
		replies []Reply
	}{
		{"self parent", []Reply{reply(1, ptr(1))}},
		{"two cycle", []Reply{reply(1, ptr(2)), reply(2, ptr(1))}},
		{"cycle with tail", []Reply{reply(1, ptr(3)), reply(2, ptr(1)), reply(3, ptr(2)), reply(4, ptr(3))}},
		{"cycle beside normal tree", []Reply{reply(1, nil), reply(2, ptr(1)), reply(3, ptr(4)), reply(4, ptr(3))}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			forest := BuildReplyForest(tc.replies)
			if n := CountReplies(forest); n != len(tc.replies) {
				t.Errorf("every reply should appear once, got %d of %d", n, len(tc.replies))
			}
		})
	}
}

func TestBuildReplyForestOrphansAndDepth(t *testing.T) {
	forest := BuildReplyForest([]Reply{reply(7, ptr(99))})
	if len(forest) != 1 || forest[0].ID != 7 {
		t.Fatalf("orphan should be promoted to root, got %+v", forest)
	}

	const depth = 10000
	chain := make([]Reply, 0, depth)
	chain = append(chain, reply(1, nil))
	for i := int64(2); i <= depth; i++ {
		chain = append(chain, reply(i, ptr(i-1)))
	}
	forest = BuildReplyForest(chain)
	if len(forest) != 1 {
		t.Fatalf("expected a single root, got %d", len(forest))
	}
	if n := CountReplies(forest); n != depth {
		t.Errorf("deep chain lost nodes: %d of %d", n, depth)
	}

	if empty := BuildReplyForest(nil); len(empty) != 0 {
		t.Errorf("empty input should give empty forest")
	}
}
