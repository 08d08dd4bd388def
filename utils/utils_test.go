// campusvoice/utils/utils_test.go
package utils

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"
)

func TestTimeAgo(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	testCases := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "Just now"},
		{time.Minute, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{3 * time.Hour, "3 hours ago"},
		{24 * time.Hour, "1 day ago"},
		{10 * 24 * time.Hour, "1 week ago"},
		{65 * 24 * time.Hour, "2 months ago"},
		{800 * 24 * time.Hour, "2 years ago"},
	}
	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			if got := TimeAgo(now.Add(-tc.ago), now); got != tc.want {
				t.Errorf("TimeAgo(-%s) = %q, want %q", tc.ago, got, tc.want)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	testCases := []struct {
		in, want string
	}{
		{"  plain text  ", "plain text"},
		{"<b>bold</b> move", "bold move"},
		{"<script>alert(1)</script>hi", "hi"},
		{"fish & chips", "fish & chips"},
	}
	for _, tc := range testCases {
		if got := CleanText(tc.in); got != tc.want {
			t.Errorf("CleanText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsProfane(t *testing.T) {
	testCases := []struct {
		text    string
		profane bool
	}{
		{"The canteen queue is too long", false},
		{"Assessment marks delayed", false},
		{"Continuous assessments", false},
		{"Embarrassing toilets", false},
		{"Hancock hall", false},
		{"Essex road", false},
		{"Hostel toilets are a mess", false},
		{"Butter chicken is always cold", false},
		{"Class passes are expensive", false},
		{"Cumin missing from the dal", false},
		{"this is shit", true},
		{"this is shit!", true},
		{"what the fuck", true},
		{"the warden is an asshole", true},
		{"sh1t food again", true},
		{"fucking cold showers", true},
		{"Bitches everywhere", true},
	}
	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			if got := IsProfane(tc.text); got != tc.profane {
				t.Errorf("IsProfane(%q) = %v, want %v", tc.text, got, tc.profane)
			}
		})
	}

	if IsProfane("", "") {
		t.Error("empty fields flagged as profane")
	}
	if !IsProfane("fine title", "this is shit") {
		t.Error("profanity in second field was not detected")
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("héllo", 2); got != "hé" {
		t.Errorf("TruncateRunes = %q", got)
	}
	if RuneLen("héllo") != 5 {
		t.Error("RuneLen should count characters")
	}
}

func TestLocalStorageSaveBackup(t *testing.T) {
	dir := t.TempDir()
	ls := &LocalStorage{Dir: dir + "/nested"}
	path, err := ls.SaveBackup(context.Background(), "../escape.db", bytes.NewReader([]byte("data")), 4)
	if err != nil {
		t.Fatalf("SaveBackup failed: %v", err)
	}
	if path != dir+"/nested/escape.db" {
		t.Errorf("backup should stay inside the storage dir, got %s", path)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "data" {
		t.Errorf("backup contents wrong: %q, %v", got, err)
	}
}
