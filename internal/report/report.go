// Package report renders ranking results for the terminal and as an HTML page.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/ibeckermayer/xtop/internal/types"
)

// WriteText prints the ranked posts of one account
func WriteText(w io.Writer, top *types.UserTop, topN int, window time.Duration) error {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "\n=== @%s | Top %d in last %s (likes) ===\n", top.Username, topN, FormatWindow(window))
	if len(top.Top) == 0 {
		fmt.Fprintf(&buf, "No posts in the last %s.\n", FormatWindow(window))
	}
	for i, r := range top.Top {
		fmt.Fprintf(&buf, "%d. %s  (♥ %d)\n", i+1, r.Permalink, r.Post.Likes)
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// WriteError prints a failed account
func WriteError(w io.Writer, username string, err error) error {
	_, werr := fmt.Fprintf(w, "\n[ERROR] @%s: %v\n", username, err)
	return werr
}

// WriteResults prints every account's ranking or error and returns how
// many accounts failed
func WriteResults(w io.Writer, results []types.Result, topN int, window time.Duration) (int, error) {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			if err := WriteError(w, r.Username, r.Err); err != nil {
				return failed, err
			}
			continue
		}
		if err := WriteText(w, r.Top, topN, window); err != nil {
			return failed, err
		}
	}
	return failed, nil
}

// FormatWindow renders a window as "24h", "45m" or "1h30m"
func FormatWindow(d time.Duration) string {
	switch {
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0 && d < time.Hour:
		return fmt.Sprintf("%dm", d/time.Minute)
	case d%time.Minute == 0:
		return strings.TrimSuffix(d.String(), "0s")
	}
	return d.String()
}

// Page is the template data of the HTML report
type Page struct {
	Title       string
	GeneratedAt string
	Window      string
	Accounts    []Account
}

// Account is one section of the HTML report
type Account struct {
	Username string
	Error    string
	Posts    []PostData
}

// PostData represents a ranked post in the HTML report
type PostData struct {
	Rank      int
	Text      string
	Likes     int
	CreatedAt string
	URL       string
}

// Builder renders HTML reports
type Builder struct {
	template *template.Template
}

// New creates a new report builder
func New() (*Builder, error) {
	tmpl, err := template.New("report").Parse(defaultTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &Builder{template: tmpl}, nil
}

// BuildHTML renders all results into one page
func (b *Builder) BuildHTML(results []types.Result, window time.Duration, generatedAt time.Time) (string, error) {
	page := Page{
		Title:       fmt.Sprintf("Top posts - last %s", FormatWindow(window)),
		GeneratedAt: generatedAt.Format("Monday, January 2 15:04 MST"),
		Window:      FormatWindow(window),
		Accounts:    make([]Account, len(results)),
	}

	for i, r := range results {
		acc := Account{Username: r.Username}
		if r.Err != nil {
			acc.Error = r.Err.Error()
		}
		if r.Top != nil {
			for j, rp := range r.Top.Top {
				acc.Posts = append(acc.Posts, PostData{
					Rank:      j + 1,
					Text:      truncate(rp.Post.Text, 280),
					Likes:     rp.Post.Likes,
					CreatedAt: rp.Post.CreatedAt.Format("Jan 2 15:04 MST"),
					URL:       rp.Permalink,
				})
			}
		}
		page.Accounts[i] = acc
	}

	var buf bytes.Buffer
	if err := b.template.Execute(&buf, page); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

const defaultTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        .container { background: white; border-radius: 8px; padding: 20px; }
        h1 { color: #1da1f2; margin-bottom: 5px; }
        h2 { color: #333; margin-top: 25px; }
        .date { color: #666; margin-bottom: 20px; }
        .post { border-bottom: 1px solid #eee; padding: 15px 0; }
        .post:last-child { border-bottom: none; }
        .content { margin: 10px 0; line-height: 1.4; }
        .metrics { color: #666; font-size: 13px; }
        .error { color: #c0392b; }
        .empty { color: #999; }
        .link { color: #1da1f2; text-decoration: none; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <div class="date">{{.GeneratedAt}}</div>

        {{range .Accounts}}
        <h2>@{{.Username}}</h2>
        {{if .Error}}<div class="error">{{.Error}}</div>
        {{else if not .Posts}}<div class="empty">No posts in the last {{$.Window}}.</div>
        {{end}}
        {{range .Posts}}
        <div class="post">
            <div class="content">{{.Rank}}. {{.Text}}</div>
            <div class="metrics">{{.Likes}} likes · {{.CreatedAt}}</div>
            <a href="{{.URL}}" class="link">View on X →</a>
        </div>
        {{end}}
        {{end}}
    </div>
</body>
</html>`
