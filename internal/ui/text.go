package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/theLastOfCats/series-browser/internal/render"
	"github.com/theLastOfCats/series-browser/internal/state"
)

const summaryWidth = 160

// Page is what a Text surface currently displays.
type Page struct {
	Tab   state.Tab
	Stats Stats
	View  render.View
	Auth  AuthView
}

// Text draws the client as plain text lines. It also keeps the current page
// so it can be exported.
type Text struct {
	mu      sync.Mutex
	w       io.Writer
	loading bool
	page    Page
}

func NewText(w io.Writer) *Text {
	return &Text{
		w:    w,
		page: Page{Tab: state.TabAll, View: render.View{Placeholder: render.Placeholder}, Auth: AuthFor(nil)},
	}
}

func (t *Text) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(t.w, format, args...)
}

func (t *Text) ShowLoading() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loading = true
}

func (t *Text) HideLoading() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loading = false
}

// Loading reports whether a load is in flight.
func (t *Text) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading
}

func (t *Text) NotifyError(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.printf("error: %s\n", message)
}

func (t *Text) ClearError() {}

func (t *Text) Alert(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.printf("!! %s\n", message)
}

func (t *Text) ClearResults() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.page.View = render.View{}
}

func (t *Text) RenderResults(view render.View) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.page.View = view

	if view.Empty() {
		t.printf("  %s\n", view.Placeholder)
		return
	}
	for _, c := range view.Cards {
		line := fmt.Sprintf("  [%d] %s", c.SeriesID, c.Title)
		if c.HasScore {
			line += "  " + c.ScoreText
		}
		if c.Badge != "" {
			line += "  " + c.Badge
		}
		t.printf("%s\n", line)
		if c.Summary != "" {
			t.printf("      %s\n", truncate(c.Summary, summaryWidth))
		}
	}
}

func (t *Text) HidePlaceholder() {}

func (t *Text) SetStats(stats Stats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.page.Stats = stats
	t.printf("-- %s\n", stats)
}

func (t *Text) ResetStats() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.page.Stats = Stats{}
}

func (t *Text) SetActiveTab(tab state.Tab) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.page.Tab = tab
	t.printf("== %s ==\n", tab)
}

func (t *Text) SetAuth(auth AuthView) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.page.Auth = auth
	t.printf("[%s]\n", auth.Label)
}

func (t *Text) ShowLogin() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.printf("login: email and password required\n")
}

func (t *Text) CloseAuth() {}

func (t *Text) AuthError(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.printf("auth: %s\n", message)
}

func (t *Text) OpenDetail(d Detail) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := d.Record
	t.printf("#%d %s\n", rec.ID, rec.Name)
	if rec.OriginalLanguage != nil && *rec.OriginalLanguage != "" {
		t.printf("language: %s\n", *rec.OriginalLanguage)
	}
	if rec.AverageNote != nil {
		count := 0
		if rec.NoteCount != nil {
			count = *rec.NoteCount
		}
		t.printf("average: %.1f/5 (%d ratings)\n", *rec.AverageNote, count)
	}
	if rec.Summary != nil && *rec.Summary != "" {
		t.printf("%s\n", *rec.Summary)
	}
	if d.CanRate {
		t.printf("your rating: %s\n", stars(d.PendingRating))
	}
}

func (t *Text) CloseDetail() {}

// Page returns a copy of what is displayed.
func (t *Text) Page() Page {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.page
}

func stars(n int) string {
	if n <= 0 {
		return "unrated"
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
