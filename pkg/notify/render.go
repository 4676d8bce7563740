package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

var digestTemplate = template.Must(template.New("digest").Parse(`
<h2>{{.Heading}}</h2>
<p>Found {{len .Entries}} new media appearance(s) this week:</p>
<div style="margin: 30px 0;">
{{- range $i, $e := .Entries}}{{if $i}}<br><br>{{end}}
• <a href="{{$e.URL}}">{{$e.Title}}</a><br>  <small>{{$e.Source}} - {{$e.Date}}</small>
{{- if and $.Verbose $e.Snippet}}<br>  <em>{{$e.Snippet}}</em>{{end}}
{{- end}}
</div>
<p style="color: #666; font-size: 12px;">These need to be reviewed and added to the tracker with quotes.</p>
{{- if .TrackerURL}}
<hr style="margin: 30px 0; border: none; border-top: 1px solid #ddd;">
<p style="font-size: 12px; color: #999;">
  View the full tracker: <a href="{{.TrackerURL}}">{{.TrackerURL}}</a>
</p>
{{- end}}
`))

// RenderHTML renders the e-mail body for a digest.
func RenderHTML(d *Digest) (string, error) {
	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return buf.String(), nil
}

// chatEntryLimit caps the entries listed in Slack and Discord messages.
const chatEntryLimit = 10

// RenderText renders a plain one-line-per-entry summary for chat webhooks.
func RenderText(d *Digest, limit int) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Found %d new media appearance(s)", len(d.Entries))
	entries := d.Entries
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for _, e := range entries {
		fmt.Fprintf(&buf, "\n• %s (%s - %s) %s", e.Title, e.Source, e.Date, e.URL)
	}
	if more := len(d.Entries) - len(entries); more > 0 {
		fmt.Fprintf(&buf, "\n…and %d more", more)
	}
	return buf.String()
}
