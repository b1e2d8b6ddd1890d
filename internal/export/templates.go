package export

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

var boardTemplate = template.Must(template.New("board").Funcs(template.FuncMap{
	"lower": strings.ToLower,
	"formatDate": func(t time.Time) string {
		return t.Format("Jan 2, 2006")
	},
}).Parse(boardTemplateHTML))

// TemplateData holds data for board template rendering
type TemplateData struct {
	TeamID      string
	HackathonID string
	GeneratedAt time.Time
	Ideas       []BoardIdea
}

func renderBoardHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := boardTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render board template: %w", err)
	}
	return buf.String(), nil
}

const boardTemplateHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Idea Board - {{.TeamID}}</title>
<style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.5; color: #1f2430; max-width: 720px; margin: 0 auto; padding: 24px; }
    .header { border-bottom: 2px solid #5b5bd6; padding-bottom: 10px; margin-bottom: 24px; }
    .header .meta { color: #666; font-size: 13px; }
    .idea { border: 1px solid #e2e4ea; border-radius: 6px; padding: 14px 18px; margin-bottom: 14px; page-break-inside: avoid; }
    .idea h2 { margin: 0 0 4px; font-size: 17px; }
    .idea .votes { float: right; font-weight: 600; color: #5b5bd6; }
    .status { display: inline-block; font-size: 11px; text-transform: uppercase; letter-spacing: 0.04em; padding: 2px 8px; border-radius: 10px; background: #eef0f6; color: #444; }
    .status-approved { background: #e2f6e9; color: #1d7a3e; }
    .status-in_progress { background: #e5effb; color: #1d5ba8; }
    .status-rejected { background: #fbe8e6; color: #a8321d; }
    .tags { margin-top: 8px; }
    .tag { display: inline-block; font-size: 11px; background: #f2f3f7; border-radius: 4px; padding: 2px 6px; margin-right: 4px; }
    .empty { color: #888; font-style: italic; }
</style>
</head>
<body>
    <div class="header">
        <h1>Idea Board</h1>
        <div class="meta">Team {{.TeamID}} · Hackathon {{.HackathonID}} · exported {{formatDate .GeneratedAt}}</div>
    </div>
    {{if not .Ideas}}<p class="empty">No ideas on this board yet.</p>{{end}}
    {{range .Ideas}}
    <div class="idea">
        <span class="votes">{{.VoteCount}} votes</span>
        <h2>{{.Title}}</h2>
        <span class="status status-{{lower .Status}}">{{.Status}}</span>
        <p>{{.Description}}</p>
        {{if .Tags}}<div class="tags">{{range .Tags}}<span class="tag">{{.}}</span>{{end}}</div>{{end}}
    </div>
    {{end}}
</body>
</html>`
