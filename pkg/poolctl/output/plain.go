package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// PlainFormatter produces unstyled line output suitable for grep and logs.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, b := range r.Backends {
		threads := "-"
		if b.Threads >= 0 {
			threads = fmt.Sprintf("%d", b.Threads)
		}
		control := "observed"
		if b.Controllable {
			control = "controllable"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.Kind, threads, control, b.Path)
	}

	for _, finding := range r.Findings {
		fmt.Fprintf(w, "%s\t%s\t%s\n", finding.Severity, finding.RuleID, finding.Hint)
	}

	return nil
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)

// TSVFormatter formats backends as tab-separated values with a header row.
type TSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString("KIND\tTHREADS\tCONTROLLABLE\tBASE\tPATH\n")
	for _, b := range r.Backends {
		fmt.Fprintf(w, "%s\t%d\t%t\t%s\t%s\n", b.Kind, b.Threads, b.Controllable, b.BaseAddr, b.Path)
	}
	return nil
}

func init() {
	Register("tsv", func() Formatter {
		return &TSVFormatter{}
	})
}

// Ensure TSVFormatter implements Formatter.
var _ Formatter = (*TSVFormatter)(nil)

// CSVFormatter formats backends as comma-separated values with proper
// quoting. It uses encoding/csv for RFC 4180 compliant output.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"KIND", "THREADS", "CONTROLLABLE", "BASE", "PATH"}); err != nil {
		return err
	}
	for _, b := range r.Backends {
		row := []string{
			b.Kind,
			fmt.Sprintf("%d", b.Threads),
			fmt.Sprintf("%t", b.Controllable),
			b.BaseAddr,
			b.Path,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func init() {
	Register("csv", func() Formatter {
		return &CSVFormatter{}
	})
}

// Ensure CSVFormatter implements Formatter.
var _ Formatter = (*CSVFormatter)(nil)
