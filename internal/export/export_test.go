package export

import (
	"strings"
	"testing"
	"time"
)

func TestRenderBoardHTML(t *testing.T) {
	data := TemplateData{
		TeamID:      "team-1",
		HackathonID: "hack-1",
		GeneratedAt: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		Ideas: []BoardIdea{
			{
				ID:          "idea-1",
				Title:       "Live demo booth",
				Description: "Run demos on a loop at the booth",
				Status:      "approved",
				Tags:        []string{"demo", "booth"},
				VoteCount:   7,
			},
			{
				ID:        "idea-2",
				Title:     "Midnight snack run",
				Status:    "submitted",
				VoteCount: 2,
			},
		},
	}

	html, err := renderBoardHTML(data)
	if err != nil {
		t.Fatalf("renderBoardHTML: %v", err)
	}

	for _, want := range []string{
		"Team team-1",
		"Hackathon hack-1",
		"Mar 14, 2026",
		"Live demo booth",
		"7 votes",
		"status-approved",
		`<span class="tag">demo</span>`,
		"Midnight snack run",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered HTML missing %q", want)
		}
	}
}

func TestRenderBoardHTMLEmpty(t *testing.T) {
	html, err := renderBoardHTML(TemplateData{TeamID: "t", HackathonID: "h", GeneratedAt: time.Now()})
	if err != nil {
		t.Fatalf("renderBoardHTML: %v", err)
	}
	if !strings.Contains(html, "No ideas on this board yet") {
		t.Errorf("empty board should render placeholder")
	}
}

func TestRenderBoardHTMLEscapes(t *testing.T) {
	html, err := renderBoardHTML(TemplateData{
		TeamID:      "t",
		HackathonID: "h",
		GeneratedAt: time.Now(),
		Ideas:       []BoardIdea{{Title: "<script>alert(1)</script>", Status: "submitted"}},
	})
	if err != nil {
		t.Fatalf("renderBoardHTML: %v", err)
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Errorf("title should be HTML-escaped")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"idea-board-team-1-hack-1", "idea-board-team-1-hack-1"},
		{"My Board!? v2", "My-Board-v2"},
		{"///", "idea-board"},
		{strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}
	for _, c := range cases {
		if got := sanitizeFilename(c.in); got != c.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	got := percentEncodeForDataURL("a b&c")
	if got != "a%20b%26c" {
		t.Errorf("percentEncodeForDataURL = %q", got)
	}
}
