// Package report renders smoke runs for humans and machines.
// Console output uses Lipgloss; styles degrade to plain text when the
// writer is not a terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/thesyncim/edusmoke/pkg/errs"
	"github.com/thesyncim/edusmoke/pkg/smoke"
)

// ─────────────────────────────────────────────────────────────────────────────
// Colour palette
// ─────────────────────────────────────────────────────────────────────────────

var (
	colorPrimary = lipgloss.Color("#7B8CDE")
	colorSuccess = lipgloss.Color("#48BB78")
	colorError   = lipgloss.Color("#FC8181")
	colorMuted   = lipgloss.Color("#4A5568")
	colorText    = lipgloss.Color("#E2E8F0")
)

// Console prints scenario progress and run summaries. It implements
// smoke.Reporter.
type Console struct {
	mu  sync.Mutex
	out io.Writer

	primary lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
	text    lipgloss.Style
	label   lipgloss.Style
}

var _ smoke.Reporter = (*Console)(nil)

// NewConsole returns a Console writing to out.
func NewConsole(out io.Writer) *Console {
	r := lipgloss.NewRenderer(out)
	return &Console{
		out:     out,
		primary: r.NewStyle().Foreground(colorPrimary).Bold(true),
		success: r.NewStyle().Foreground(colorSuccess).Bold(true),
		failure: r.NewStyle().Foreground(colorError).Bold(true),
		muted:   r.NewStyle().Foreground(colorMuted),
		text:    r.NewStyle().Foreground(colorText),
		label:   r.NewStyle().Foreground(colorPrimary).Bold(true).Width(14),
	}
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}

// ─────────────────────────────────────────────────────────────────────────────
// smoke.Reporter
// ─────────────────────────────────────────────────────────────────────────────

// Start announces a scenario.
func (c *Console) Start(name smoke.Name) {
	c.println(c.text.Render(fmt.Sprintf("🧪 Testing %s...", name.Title())))
}

// Pass prints the scenario's success detail.
func (c *Console) Pass(res smoke.Result) {
	c.println(c.success.Render("✅ "+res.Detail) + c.muted.Render(" ("+round(res.Duration)+")"))
}

// Fail prints the scenario's error.
func (c *Console) Fail(res smoke.Result) {
	c.println(c.failure.Render(fmt.Sprintf("❌ %s failed: %s", res.Name.Title(), Describe(res.Err))))
}

// ─────────────────────────────────────────────────────────────────────────────
// Run framing
// ─────────────────────────────────────────────────────────────────────────────

// Banner prints the header shown before the first scenario.
func (c *Console) Banner(baseURL string, names []smoke.Name) {
	bar := strings.Repeat("─", 60)
	titles := make([]string, len(names))
	for i, n := range names {
		titles[i] = string(n)
	}
	c.println(c.primary.Render("🚀 Starting EduApp Smoke Tests"))
	c.println(c.primary.Render(bar))
	c.KV("Target", baseURL)
	c.KV("Scenarios", strings.Join(titles, ", "))
	c.println(c.primary.Render(bar))
}

// Summary prints the closing line of a run. err is the runner's error.
func (c *Console) Summary(res *smoke.RunResult, err error) {
	c.println(c.muted.Render(strings.Repeat("─", 60)))
	if err != nil {
		c.println(c.failure.Render("❌ Test suite failed with error: " + Describe(err)))
	} else {
		c.println(c.success.Render("✅ All tests completed successfully!"))
	}
	if res != nil {
		c.println(c.muted.Render(fmt.Sprintf("%s · %d scenario(s) · %s", res.ID, len(res.Results), round(res.Duration()))))
	}
}

// Iteration prints one soak status line.
func (c *Console) Iteration(n int, res *smoke.RunResult, err error) {
	status := c.success.Render("PASS")
	if err != nil {
		status = c.failure.Render("FAIL")
	}
	line := fmt.Sprintf("[%04d] %s", n, status)
	if res != nil {
		line += c.text.Render(fmt.Sprintf(" %s %s", res.ID, round(res.Duration())))
	}
	if err != nil {
		line += c.failure.Render(" " + err.Error())
	}
	c.println(line)
}

// ─────────────────────────────────────────────────────────────────────────────
// Generic helpers
// ─────────────────────────────────────────────────────────────────────────────

// KV prints a labelled key-value pair.
func (c *Console) KV(key, value string) {
	c.println(c.label.Render(key) + c.text.Render(value))
}

// Info prints a dimmed line.
func (c *Console) Info(format string, args ...any) {
	c.println(c.muted.Render("  " + fmt.Sprintf(format, args...)))
}

// Error prints a failure line.
func (c *Console) Error(format string, args ...any) {
	c.println(c.failure.Render("✗ ") + c.text.Render(fmt.Sprintf(format, args...)))
}

// Table renders rows under coloured headers.
func (c *Console) Table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	pad := func(cells []string) string {
		var b strings.Builder
		for i, cell := range cells {
			w := 0
			if i < len(widths) {
				w = widths[i]
			}
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", w-lipgloss.Width(cell)+2))
		}
		return strings.TrimRight(b.String(), " ")
	}

	c.println(c.primary.Render(pad(headers)))
	sep := 0
	for _, w := range widths {
		sep += w + 2
	}
	c.println(c.muted.Render(strings.Repeat("─", sep)))
	for _, row := range rows {
		c.println(c.text.Render(pad(row)))
	}
}

// Describe renders err for the console. The remediation hint of a coded
// error anywhere in the chain follows on its own line.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if se := errs.AsSmoke(err); se != nil && se.Advice != "" {
		msg += "\n  → " + se.Advice
	}
	return msg
}

// round trims d for display.
func round(d time.Duration) string {
	switch {
	case d >= time.Second:
		return d.Round(10 * time.Millisecond).String()
	default:
		return d.Round(time.Millisecond).String()
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// JSON
// ─────────────────────────────────────────────────────────────────────────────

type jsonResult struct {
	smoke.Result
	Error string `json:"error,omitempty"`
}

type jsonRun struct {
	ID         string       `json:"id"`
	BaseURL    string       `json:"base_url"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	DurationMS int64        `json:"duration_ms"`
	Passed     bool         `json:"passed"`
	Results    []jsonResult `json:"results"`
}

// JSON writes res as one indented JSON document.
func JSON(w io.Writer, res *smoke.RunResult) error {
	out := jsonRun{
		ID:         res.ID,
		BaseURL:    res.BaseURL,
		StartedAt:  res.StartedAt,
		FinishedAt: res.Finished,
		DurationMS: res.Duration().Milliseconds(),
		Passed:     res.Passed(),
		Results:    make([]jsonResult, len(res.Results)),
	}
	for i, r := range res.Results {
		out.Results[i] = jsonResult{Result: r, Error: r.ErrText()}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
