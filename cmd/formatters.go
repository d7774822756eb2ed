package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"hydra/core"
	"hydra/discovery"
	"hydra/storage"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// CLI output formatters
var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
)

// Output formats of --output
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

const tableWidth = 96

func validateOutput(format string) error {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("invalid output format %q (must be table, json or yaml)", format)
	}
}

// writeStructured encodes data as JSON or YAML
func writeStructured(w io.Writer, format string, data interface{}) error {
	switch format {
	case outputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case outputYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("format %q is not a structured output", format)
	}
}

// modelStats reports node and edge counts of an OC-DFG, either freshly
// discovered or reloaded from storage as generic JSON.
func modelStats(model core.Model) (nodes, edges int, ok bool) {
	switch m := model.(type) {
	case *discovery.OCDFG:
		if m == nil {
			return 0, 0, false
		}
		return m.NodeCount(), m.EdgeCount(), true
	case map[string]interface{}:
		activities, isMap := m["activities"].(map[string]interface{})
		if !isMap {
			return 0, 0, false
		}
		perspectives, _ := m["perspectives"].(map[string]interface{})
		for _, p := range perspectives {
			if pm, isMap := p.(map[string]interface{}); isMap {
				list, _ := pm["edges"].([]interface{})
				edges += len(list)
			}
		}
		return len(activities), edges, true
	}
	return 0, 0, false
}

// renderReport displays a discovery report as a summary table
func renderReport(w io.Writer, report *core.Report) {
	failed := make(map[string]core.TypeFailure, len(report.Failures))
	for _, f := range report.Failures {
		failed[f.ObjectType] = f
	}

	headerColor.Fprintln(w, "OBJECT-WISE DISCOVERY")
	headerColor.Fprintln(w, strings.Repeat("=", tableWidth))
	fmt.Fprintf(w, "Run: %s\n", report.RunID)
	fmt.Fprintf(w, "Relations (global): %d", report.TotalCount)
	if report.UnresolvedRefs > 0 {
		warningColor.Fprintf(w, "  (%d unresolved)", report.UnresolvedRefs)
	}
	fmt.Fprintf(w, "\nDuration: %s\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintln(w, strings.Repeat("-", tableWidth))

	if len(report.Results) == 0 {
		warningColor.Fprintln(w, "No object types in log")
		fmt.Fprintln(w, strings.Repeat("=", tableWidth))
		return
	}

	fmt.Fprintf(w, "%-30s %10s %8s %8s %8s %8s  %s\n",
		"Object Type", "Relations", "Events", "Objects", "Nodes", "Edges", "Status")
	fmt.Fprintln(w, strings.Repeat("-", tableWidth))

	for _, res := range report.Results {
		nodes, edges := "-", "-"
		if n, e, ok := modelStats(res.Model); ok {
			nodes, edges = fmt.Sprint(n), fmt.Sprint(e)
		}

		status := successColor.Sprint("ok")
		if f, isFailed := failed[res.ObjectType]; isFailed {
			status = errorColor.Sprintf("failed (%s)", f.Stage)
		}

		fmt.Fprintf(w, "%-30s %10d %8d %8d %8s %8s  %s\n",
			truncate(res.ObjectType, 30), res.RelationCount, res.EventCount, res.ObjectCount, nodes, edges, status)
	}
	fmt.Fprintln(w, strings.Repeat("=", tableWidth))

	if len(report.Failures) > 0 {
		errorColor.Fprintf(w, "%d object type(s) failed:\n", len(report.Failures))
		for _, f := range report.Failures {
			fmt.Fprintf(w, "  - %s [%s]: %s\n", f.ObjectType, f.Stage, f.Error)
		}
	}
}

// renderSummaries displays stored reports
func renderSummaries(w io.Writer, summaries []storage.ReportSummary) {
	if len(summaries) == 0 {
		warningColor.Fprintln(w, "No stored reports")
		return
	}

	headerColor.Fprintln(w, "REPORTS")
	headerColor.Fprintln(w, strings.Repeat("=", tableWidth))
	fmt.Fprintf(w, "%-36s %-20s %-16s %9s %6s %8s %9s\n",
		"ID", "Created", "Fingerprint", "Relations", "Types", "Failures", "Duration")
	fmt.Fprintln(w, strings.Repeat("-", tableWidth))

	for _, s := range summaries {
		fmt.Fprintf(w, "%-36s %-20s %-16s %9d %6d %8d %9s\n",
			s.ID, formatTime(s.CreatedAt), truncate(s.LogFingerprint, 16), s.TotalCount,
			s.ObjectTypes, s.Failures, formatDurationMs(s.DurationMs))
	}
	fmt.Fprintln(w, strings.Repeat("=", tableWidth))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// formatTime formats a timestamp
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatDurationMs(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}
