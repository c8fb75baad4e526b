package output

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/fatih/color"

	"github.com/ritchy/BytePass/internal/client/document"
	"github.com/ritchy/BytePass/internal/client/storage"
)

// TextFormatter formats data as human-readable text with color
type TextFormatter struct {
	accountTemplate *template.Template
	runTemplate     *template.Template
}

// NewTextFormatter creates a new text formatter with color support
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		accountTemplate: template.Must(template.New("account").Funcs(templateFuncs()).Parse(accountTemplate)),
		runTemplate:     template.Must(template.New("run").Funcs(templateFuncs()).Parse(runTemplate)),
	}
}

// templateFuncs returns template functions for formatting
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"bold":       color.New(color.Bold).Sprint,
		"faint":      color.New(color.Faint).Sprint,
		"cyan":       color.CyanString,
		"green":      color.GreenString,
		"yellow":     color.YellowString,
		"red":        color.RedString,
		"statusIcon": statusIcon,
		"join":       strings.Join,
	}
}

func statusIcon(status string) string {
	switch status {
	case string(document.StatusActive):
		return color.GreenString("●")
	case string(document.StatusDeleted):
		return color.RedString("🗑")
	default:
		return status
	}
}

// actionColor maps reconciliation actions to colors
func actionColor(action string) func(format string, a ...any) string {
	switch action {
	case "added", "replaced":
		return color.GreenString
	case "kept_local", "local_only":
		return color.YellowString
	case "skipped":
		return color.RedString
	default:
		return color.CyanString
	}
}

// Format formats a single item as text
func (f *TextFormatter) Format(data any) (string, error) {
	switch v := data.(type) {
	case *AccountView:
		return f.formatTemplate(f.accountTemplate, v)
	case *storage.SyncRun:
		return f.formatTemplate(f.runTemplate, v)
	default:
		return fmt.Sprintf("%+v\n", data), nil
	}
}

// FormatList formats a list of items as text
func (f *TextFormatter) FormatList(data any) (string, error) {
	switch v := data.(type) {
	case []ListItem:
		return f.formatListItems(v)
	case []*storage.DecisionEntry:
		return f.formatDecisions(v)
	case []document.ClientRequest:
		return f.formatClients(v)
	case []string:
		return f.formatStrings(v)
	default:
		return fmt.Sprintf("%+v\n", data), nil
	}
}

// formatTemplate applies a template to data
func (f *TextFormatter) formatTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		// Fallback to JSON on template error
		return NewJSONFormatter().Format(data)
	}
	return buf.String(), nil
}

func (f *TextFormatter) formatListItems(items []ListItem) (string, error) {
	if len(items) == 0 {
		return "No accounts found\n", nil
	}

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("\n%s (%d):\n\n", color.New(color.Bold).Sprint("Accounts"), len(items)))

	for _, item := range items {
		buf.WriteString(fmt.Sprintf("  %s %s", statusIcon(item.Status), color.New(color.Bold).Sprint(item.Name)))
		if item.Username != "" {
			buf.WriteString(" " + color.CyanString(item.Username))
		}
		if len(item.Tags) > 0 {
			buf.WriteString(" " + color.GreenString("[%s]", strings.Join(item.Tags, ", ")))
		}
		buf.WriteString("\n")
		buf.WriteString(fmt.Sprintf("    ID: %s\n", color.New(color.Faint).Sprint(item.ID)))
		buf.WriteString(fmt.Sprintf("    Updated: %s\n", item.LastUpdated))
		buf.WriteString("\n")
	}

	return buf.String(), nil
}

func (f *TextFormatter) formatDecisions(entries []*storage.DecisionEntry) (string, error) {
	if len(entries) == 0 {
		return "No reconciliation decisions recorded\n", nil
	}

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("\n%s (%d):\n\n", color.New(color.Bold).Sprint("Decisions"), len(entries)))

	for _, e := range entries {
		buf.WriteString(fmt.Sprintf("  %s  %-10s %s %s\n",
			e.DecidedAt.Local().Format("2006-01-02 15:04:05"),
			actionColor(e.Action)("%s", e.Action),
			color.New(color.Bold).Sprint(e.RecordName),
			color.New(color.Faint).Sprintf("(%d)", e.RecordID),
		))
		if e.LocalUpdated != "" || e.IncomingUpdated != "" {
			buf.WriteString(fmt.Sprintf("      local: %s  remote: %s\n", orDash(e.LocalUpdated), orDash(e.IncomingUpdated)))
		}
	}

	return buf.String(), nil
}

func (f *TextFormatter) formatClients(clients []document.ClientRequest) (string, error) {
	if len(clients) == 0 {
		return "No clients in the access ledger\n", nil
	}

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("\n%s (%d):\n\n", color.New(color.Bold).Sprint("Clients"), len(clients)))

	for _, c := range clients {
		status := string(c.AccessStatus)
		switch c.AccessStatus {
		case document.AccessGranted:
			status = color.GreenString(status)
		case document.AccessRequested:
			status = color.YellowString(status)
		case document.AccessDenied:
			status = color.RedString(status)
		}

		buf.WriteString(fmt.Sprintf("  %s %s\n", color.New(color.Bold).Sprint(c.ClientName), status))
		buf.WriteString(fmt.Sprintf("    ID: %s\n", color.New(color.Faint).Sprint(c.ClientID)))
		buf.WriteString(fmt.Sprintf("    Updated: %s\n\n", c.LastUpdated))
	}

	return buf.String(), nil
}

func (f *TextFormatter) formatStrings(values []string) (string, error) {
	if len(values) == 0 {
		return "None\n", nil
	}
	return strings.Join(values, "\n") + "\n", nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Templates

const accountTemplate = `
{{ bold "Account:" }} {{ cyan .Name }} {{ statusIcon .Status }}
{{ bold "ID:" }} {{ .ID }}
{{- if .Username }}
{{ bold "Username:" }} {{ .Username }}
{{- end }}
{{ bold "Password:" }} {{ .Password }}
{{- if .Email }}
{{ bold "Email:" }} {{ .Email }}
{{- end }}
{{- if .URL }}
{{ bold "URL:" }} {{ .URL }}
{{- end }}
{{- if .AccountNumber }}
{{ bold "Account Number:" }} {{ .AccountNumber }}
{{- end }}
{{- if .Hint }}
{{ bold "Hint:" }} {{ .Hint }}
{{- end }}
{{- if .Notes }}
{{ bold "Notes:" }} {{ .Notes }}
{{- end }}
{{- if .Tags }}
{{ bold "Tags:" }} {{ range .Tags }}{{ green . }} {{ end }}
{{- end }}

{{ bold "Updated:" }} {{ .LastUpdated }}
`

const runTemplate = `
{{ bold "Last sync:" }} {{ .StartedAt.Local.Format "2006-01-02 15:04:05" }}
{{ bold "Run:" }} {{ faint .ID }}
{{ bold "Pushed:" }} {{ .Pushed }}
{{ bold "Local changed:" }} {{ .LocalChanged }}
{{- if .RemoteFileID }}
{{ bold "Remote file:" }} {{ .RemoteFileID }}
{{- end }}
{{- if .Error }}
{{ bold "Error:" }} {{ red .Error }}
{{- end }}
`
