package netdiag

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

// Status is the result of a single diagnostic check.
type Status string

const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// Layer identifies which rung of the connectivity ladder a check exercised.
type Layer string

const (
	LayerDNS   Layer = "dns"
	LayerTCP   Layer = "tcp"
	LayerTLS   Layer = "tls"
	LayerHTTP  Layer = "http"
	LayerAuth  Layer = "auth"
	LayerKafka Layer = "kafka"
)

// Row is a single diagnostic check result.
type Row struct {
	Component string `json:"component"`
	Target    string `json:"target"`
	Layer     Layer  `json:"layer"`
	Status    Status `json:"status"`
	Detail    string `json:"detail"`
	Hint      string `json:"hint,omitempty"`
}

// Report collects the results of one doctor scan.
type Report struct {
	Rows       []Row     `json:"rows"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	HasFailed  bool      `json:"has_failed"`
}

// Stats counts rows by status.
type Stats struct {
	OK   int `json:"ok"`
	Warn int `json:"warn"`
	Fail int `json:"fail"`
	Skip int `json:"skip"`
}

func (r *Report) add(row Row) {
	if row.Status == StatusFail {
		r.HasFailed = true
	}
	r.Rows = append(r.Rows, row)
}

// Summary counts the report rows by status.
func (r *Report) Summary() Stats {
	var s Stats
	for _, row := range r.Rows {
		switch row.Status {
		case StatusOK:
			s.OK++
		case StatusWarn:
			s.Warn++
		case StatusFail:
			s.Fail++
		case StatusSkip:
			s.Skip++
		}
	}
	return s
}

// PrintPretty renders the report as aligned, colorized [PASS]/[FAIL] lines.
func (r *Report) PrintPretty(w io.Writer) {
	pass := color.New(color.FgGreen).Sprint("[PASS]")
	warn := color.New(color.FgYellow).Sprint("[WARN]")
	fail := color.New(color.FgRed, color.Bold).Sprint("[FAIL]")
	skip := color.New(color.Faint).Sprint("[SKIP]")

	for _, row := range r.Rows {
		tag := skip
		switch row.Status {
		case StatusOK:
			tag = pass
		case StatusWarn:
			tag = warn
		case StatusFail:
			tag = fail
		}
		fmt.Fprintf(w, "%s %-9s %-30s %-6s %s\n",
			tag, row.Component, truncate(row.Target, 30), row.Layer, row.Detail)
		if row.Hint != "" && row.Status != StatusOK {
			fmt.Fprintf(w, "       %s\n", color.YellowString("hint: %s", row.Hint))
		}
	}

	s := r.Summary()
	fmt.Fprintf(w, "\n%d pass, %d warn, %d fail, %d skipped in %s\n",
		s.OK, s.Warn, s.Fail, s.Skip,
		r.FinishedAt.Sub(r.StartedAt).Truncate(time.Millisecond))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "..."
}
