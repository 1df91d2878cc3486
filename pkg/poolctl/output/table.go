package output

import (
	"bytes"
	"fmt"
	"strings"
)

// TableFormatter renders a styled terminal table with a header box,
// one row per backend, and a findings section when conflicts were checked.
// It is the default format for interactive use.
type TableFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TableFormatter) Format(w *bytes.Buffer, r *Result) error {
	f.writeHeader(w, r)
	f.writeBackends(w, r)
	f.writeFindings(w, r)
	return nil
}

// writeHeader renders the snapshot info box.
func (f *TableFormatter) writeHeader(w *bytes.Buffer, r *Result) {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Thread-pool backends"))
	b.WriteString("\n")
	b.WriteString(LabelStyle.Render("Snapshot: "))
	b.WriteString(r.RegistryID)
	b.WriteString("\n")
	b.WriteString(LabelStyle.Render("Platform: "))
	b.WriteString(r.Platform)

	w.WriteString(HeaderBox.Render(b.String()))
	w.WriteString("\n")
}

// writeBackends renders the backend rows.
func (f *TableFormatter) writeBackends(w *bytes.Buffer, r *Result) {
	if len(r.Backends) == 0 {
		w.WriteString(MutedStyle.Render("no threading backends loaded"))
		w.WriteString("\n")
		return
	}

	fmt.Fprintf(w, "%-14s %-8s %-10s %-10s %s\n", "KIND", "THREADS", "CONTROL", "SIZE", "PATH")
	for _, b := range r.Backends {
		threads := "-"
		if b.Threads >= 0 {
			threads = fmt.Sprintf("%d", b.Threads)
		}
		control := ObservedStyle.Render("observed")
		if b.Controllable {
			control = ControllableStyle.Render("yes")
		}
		fmt.Fprintf(w, "%-14s %-8s %-10s %-10s %s\n",
			KindStyle.Render(b.Kind), threads, control, b.SizeHuman, b.Path)
	}
}

// writeFindings renders the conflict findings section.
func (f *TableFormatter) writeFindings(w *bytes.Buffer, r *Result) {
	if r.Findings == nil {
		return
	}
	if len(r.Findings) == 0 {
		w.WriteString("\n")
		w.WriteString(ControllableStyle.Render("no conflicts detected"))
		w.WriteString("\n")
		return
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Conflicts"))
	for _, finding := range r.Findings {
		b.WriteString("\n")
		b.WriteString(severityStyle(finding.Severity).Render(
			fmt.Sprintf("[%s] %s", strings.ToUpper(finding.Severity), finding.RuleID)))
		for _, lib := range finding.Libraries {
			b.WriteString("\n  ")
			b.WriteString(lib)
		}
		b.WriteString("\n  ")
		b.WriteString(MutedStyle.Render("hint: " + finding.Hint))
	}

	w.WriteString(FindingBox.Render(b.String()))
	w.WriteString("\n")
}

func init() {
	Register("table", func() Formatter {
		return &TableFormatter{}
	})
}

// Ensure TableFormatter implements Formatter.
var _ Formatter = (*TableFormatter)(nil)
