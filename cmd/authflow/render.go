package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MrEthical07/authflow"
	"github.com/MrEthical07/authflow/market"
	"github.com/MrEthical07/authflow/prefs"
	"github.com/charmbracelet/lipgloss"
)

type palette struct {
	success lipgloss.Color
	failure lipgloss.Color
	muted   lipgloss.Color
	accent  lipgloss.Color
}

var palettes = map[prefs.Theme]palette{
	prefs.ThemeDark:  {success: "#22C55E", failure: "#F87171", muted: "#9CA3AF", accent: "#60A5FA"},
	prefs.ThemeLight: {success: "#15803D", failure: "#B91C1C", muted: "#4B5563", accent: "#1D4ED8"},
}

// renderer prints controller feedback. Colors degrade to plain text when
// the output is not a terminal.
type renderer struct {
	out   io.Writer
	theme prefs.Theme

	success lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
	accent  lipgloss.Style
	title   lipgloss.Style
}

func newRenderer(out io.Writer, theme prefs.Theme) *renderer {
	lr := lipgloss.NewRenderer(out)
	resolved := theme.Resolve(lr.HasDarkBackground())
	p := palettes[resolved]
	return &renderer{
		out:     out,
		theme:   resolved,
		success: lr.NewStyle().Foreground(p.success).Bold(true),
		failure: lr.NewStyle().Foreground(p.failure).Bold(true),
		muted:   lr.NewStyle().Foreground(p.muted),
		accent:  lr.NewStyle().Foreground(p.accent).Underline(true),
		title:   lr.NewStyle().Bold(true),
	}
}

// State prints a terminal state. Non-terminal states print nothing.
func (r *renderer) State(s authflow.State) {
	fb, ok := authflow.FeedbackOf(s)
	if !ok {
		return
	}
	style, mark := r.failure, "✗"
	if fb.Kind == authflow.FeedbackSuccess {
		style, mark = r.success, "✓"
	}
	fmt.Fprintln(r.out, style.Render(mark+" "+fb.Text))
	if fb.Detail != "" {
		fmt.Fprintln(r.out, r.muted.Render("  "+fb.Detail))
	}
	if fb.ActionLink != nil {
		fmt.Fprintf(r.out, "  %s %s\n", fb.ActionLink.Text, r.accent.Render("/"+strings.TrimLeft(fb.ActionLink.Target, "/")))
	}
	if fb.ResendAvailable {
		fmt.Fprintln(r.out, r.muted.Render("  Didn't get the email? Run again with --resend."))
	}
}

func (r *renderer) Navigation(target string) {
	fmt.Fprintln(r.out, r.muted.Render("→ "+target))
}

func (r *renderer) Line(format string, args ...any) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

func (r *renderer) Session(info authflow.SessionInfo) {
	fmt.Fprintln(r.out, r.title.Render("Session"))
	fmt.Fprintf(r.out, "  subject:  %s\n", info.Subject)
	if info.Email != "" {
		fmt.Fprintf(r.out, "  email:    %s\n", info.Email)
	}
	if info.Username != "" {
		fmt.Fprintf(r.out, "  username: %s\n", info.Username)
	}
	if info.Expired {
		fmt.Fprintln(r.out, r.failure.Render("  expired"))
	}
}

func (r *renderer) Overview(ov market.Overview) {
	r.stocks("Best performing stocks today", ov.Best, ov.BestErr)
	r.stocks("Worst performing stocks today", ov.Worst, ov.WorstErr)

	fmt.Fprintln(r.out, r.title.Render("Latest transactions"))
	if ov.LatestErr != nil {
		fmt.Fprintln(r.out, r.failure.Render("  "+fetchMessage(ov.LatestErr)))
		return
	}
	if len(ov.Latest) == 0 {
		fmt.Fprintln(r.out, r.muted.Render("  none"))
	}
	for _, tx := range ov.Latest {
		fmt.Fprintf(r.out, "  %-6s %-4s %10.2f @ %.2f\n", tx.Symbol, tx.Side, tx.Quantity, tx.Price)
	}
}

func (r *renderer) stocks(title string, list []market.Stock, err error) {
	fmt.Fprintln(r.out, r.title.Render(title))
	if err != nil {
		fmt.Fprintln(r.out, r.failure.Render("  "+fetchMessage(err)))
		return
	}
	if len(list) == 0 {
		fmt.Fprintln(r.out, r.muted.Render("  none"))
	}
	for _, s := range list {
		change := r.success
		if s.ChangePercent < 0 {
			change = r.failure
		}
		fmt.Fprintf(r.out, "  %-6s %-24s %10.2f %s\n", s.Symbol, s.Name, s.Price, change.Render(fmt.Sprintf("%+.2f%%", s.ChangePercent)))
	}
}

func fetchMessage(err error) string {
	var fe *market.FetchError
	if errors.As(err, &fe) {
		return fe.Message
	}
	return err.Error()
}
