package notify

import (
	"bytes"
	"errors"
	"text/template"
	"time"
)

const DefaultTemplate = `[Admin Dashboard {{.LevelLabel}}]
{{.Message}}
Time: {{.Time}}`

// TemplateData provides fields for rendering notice content.
type TemplateData struct {
	Level      string
	LevelLabel string
	Message    string
	Time       string
	ID         string
}

// Template renders notice content for text channels.
type Template struct {
	tpl *template.Template
}

// NewTemplate parses a notice template, falling back to DefaultTemplate.
func NewTemplate(tpl string) (*Template, error) {
	if tpl == "" {
		tpl = DefaultTemplate
	}
	parsed, err := template.New("notice").Parse(tpl)
	if err != nil {
		return nil, err
	}
	return &Template{tpl: parsed}, nil
}

// Render applies the template to a notice.
func (t *Template) Render(notice Notice) (string, error) {
	if t == nil || t.tpl == nil {
		return "", errors.New("notice template: nil")
	}
	data := TemplateData{
		Level:      string(notice.Level),
		LevelLabel: levelLabel(notice.Level),
		Message:    notice.Message,
		Time:       notice.At.UTC().Format(time.RFC3339),
		ID:         notice.ID,
	}
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
