package web

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/JonMunkholm/sortinghat/internal/core"
)

var titleCaser = cases.Title(language.English)

// label turns identifiers such as "datetime_as_object" into "Datetime As Object".
func label(s string) string {
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return titleCaser.String(s)
}

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2937}
table{border-collapse:collapse;margin-top:1rem}
th,td{border:1px solid #d1d5db;padding:.35rem .75rem;text-align:left}
th{background:#f3f4f6}
.muted{color:#6b7280}
.tag{display:inline-block;background:#e0e7ff;border-radius:.25rem;padding:0 .4rem;margin-right:.25rem}
.alert{border:1px solid #fca5a5;background:#fef2f2;padding:1rem;border-radius:.375rem}`

// page wraps body in the shared HTML layout.
func page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, "<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\"><title>%s</title><style>%s</style></head><body>",
			templ.EscapeString(title), pageStyle); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}

// RunReport renders one inference run as an HTML page.
func RunReport(run *core.Run) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		e := templ.EscapeString[string]

		fmt.Fprintf(&b, "<h1>%s</h1>", e(run.Source))
		fmt.Fprintf(&b, "<p class=\"muted\">Run %s &middot; %s classifier &middot; %d columns &middot; %d rows &middot; %s</p>",
			e(run.ID.String()), e(label(run.Classifier)), len(run.Metadata.Features), run.Rows,
			e(run.CreatedAt.Format("2006-01-02 15:04:05 MST")))

		b.WriteString("<table><thead><tr><th>Column</th><th>Classifier Code</th><th>Raw Type</th><th>Special Types</th></tr></thead><tbody>")
		for _, f := range run.Metadata.Features {
			raw, _ := run.Metadata.RawType(f)
			fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>", e(f), e(label(run.Codes[f].String())), e(label(string(raw))))
			tags := run.Metadata.SpecialTypes(f)
			if len(tags) == 0 {
				b.WriteString("<span class=\"muted\">none</span>")
			}
			for _, t := range tags {
				fmt.Fprintf(&b, "<span class=\"tag\">%s</span>", e(label(string(t))))
			}
			b.WriteString("</td></tr>")
		}
		b.WriteString("</tbody></table>")

		groups := run.Metadata.TypeGroupMapRaw()
		b.WriteString("<h2>Raw Type Groups</h2><ul>")
		for _, raw := range []core.RawType{core.RawInt, core.RawFloat, core.RawBool, core.RawCategory, core.RawDatetime, core.RawObject} {
			cols := groups[raw]
			if len(cols) == 0 {
				continue
			}
			fmt.Fprintf(&b, "<li><strong>%s</strong>: %s</li>", e(label(string(raw))), e(strings.Join(cols, ", ")))
		}
		b.WriteString("</ul>")

		_, err := io.WriteString(w, b.String())
		return err
	})
	return page("Run "+run.ID.String(), body)
}

// ErrorPage renders a user-facing error.
func ErrorPage(msg core.UserMessage) templ.Component {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, "<div class=\"alert\" role=\"alert\"><strong>%s</strong><p>%s</p><p class=\"muted\">Code: %s</p></div>",
			templ.EscapeString(msg.Message), templ.EscapeString(msg.Action), templ.EscapeString(msg.Code))
		return err
	})
	return page("Error", body)
}
