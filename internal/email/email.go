// Package email renders an event list as a self-contained, table-based HTML email with
// inline styles, the layout mail clients handle best.
package email

import (
	"bytes"
	"html/template"
	"strings"

	"sjsage522/portalevents/internal/events"
)

// Template names
const (
	TemplateInterest = "interest"
	TemplateInsider  = "insider"
)

const (
	DefaultTitle = "This Week at Fitler Club"
	untitled     = "Untitled Event"
)

// Options selects the heading and the description style
type Options struct {
	Title string
	// Template is "interest" for the rich description; anything else renders "insider"
	Template string
}

type block struct {
	Title       string
	Banner      string
	When        string
	Description template.HTML
	URL         string
}

type page struct {
	Title  string
	Events []block
}

var emailTemplate = template.Must(template.New("email").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Title}}</title>
</head>
<body style="margin:0; padding:0; background:#f5f5f7;">
  <table width="100%" cellpadding="0" cellspacing="0" role="presentation" style="background:#f5f5f7;">
    <tr>
      <td align="center" style="padding:24px;">
        <table width="640" cellpadding="0" cellspacing="0" role="presentation" style="max-width:640px; width:100%; background:#ffffff; border-radius:8px; overflow:hidden;">
          <tr>
            <td style="padding:24px 24px 8px 24px; font-family:Arial,Helvetica,sans-serif;">
              <h1 style="margin:0; font-size:24px; line-height:1.2; color:#111111;">{{.Title}}</h1>
            </td>
          </tr>
          <tr><td style="height:8px; line-height:8px; font-size:0;">&nbsp;</td></tr>
          <tr>
            <td style="padding:0 0 16px 0;">{{range .Events}}
<table width="100%" role="presentation" cellpadding="0" cellspacing="0" style="border-top:1px solid #e5e7eb;">
  {{if .Banner}}<tr><td><img src="{{.Banner}}" alt="" width="640" style="display:block; width:100%; height:auto; border:0;" /></td></tr>{{end}}
  <tr>
    <td style="padding:16px 24px; font-family:Arial,Helvetica,sans-serif;">
      <div style="font-size:18px; color:#111111; font-weight:bold;">{{.Title}}</div>
      {{if .When}}<div style="color:#374151; font-size:14px; margin-top:4px;">{{.When}}</div>{{end}}
      {{if .Description}}<div style="color:#4b5563; font-size:14px; margin-top:12px; line-height:1.5;">{{.Description}}</div>{{end}}
      {{if .URL}}<a href="{{.URL}}" style="display:inline-block; margin-top:14px; background:#111111; color:#ffffff; text-decoration:none; padding:10px 14px; border-radius:4px; font-size:14px;">View Event</a>{{end}}
    </td>
  </tr>
</table>{{end}}</td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`))

// Render builds the email for list
func Render(list []events.Event, opts Options) (string, error) {
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	tmpl := opts.Template
	if tmpl != TemplateInterest {
		tmpl = TemplateInsider
	}

	p := page{Title: title, Events: make([]block, 0, len(list))}
	for _, ev := range list {
		p.Events = append(p.Events, newBlock(ev, tmpl))
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, p); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func newBlock(ev events.Event, tmpl string) block {
	b := block{
		Title:  strings.TrimSpace(ev.Title),
		Banner: ev.BannerImage,
		When:   events.FormatDateTime(ev.Date, ev.Time),
		URL:    ev.URL,
	}
	if b.Title == "" {
		b.Title = untitled
	}

	if tmpl == TemplateInterest {
		// Portal markup was cleaned during normalization and is embedded as is.
		// Plain fallbacks are escaped.
		switch {
		case ev.LongDescriptionHTML != "":
			b.Description = template.HTML(ev.LongDescriptionHTML)
		case ev.LongDescription != "":
			b.Description = template.HTML(template.HTMLEscapeString(ev.LongDescription))
		default:
			b.Description = template.HTML(template.HTMLEscapeString(ev.Description))
		}
		return b
	}

	text := ev.Description
	if text == "" {
		text = ev.LongDescription
	}
	b.Description = template.HTML(template.HTMLEscapeString(text))
	return b
}
