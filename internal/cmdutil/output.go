package cmdutil

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/opmodel/optimize/internal/assemble"
	"github.com/opmodel/optimize/internal/output"
	"github.com/opmodel/optimize/internal/pipeline"
)

// WriteReport writes an invocation report in the requested format.
func WriteReport(w io.Writer, report *pipeline.Report, format output.Format) error {
	if format == output.FormatTable {
		_, err := fmt.Fprintln(w, output.RenderUnitTable(UnitRows(report)))
		return err
	}
	return output.WriteDocument(w, report, format)
}

// UnitRows converts report entries into summary table rows.
func UnitRows(report *pipeline.Report) []output.UnitRow {
	rows := make([]output.UnitRow, 0, len(report.Functions))
	for _, f := range report.Functions {
		row := output.UnitRow{
			Function: f.Function,
			Status:   string(f.Status),
			Handler:  f.HandlerOriginal,
		}
		if f.Status == assemble.StatusBuilt {
			row.Handler = f.HandlerOptimize
			row.Size = HumanSize(f.Size)
			row.Digest = shortDigest(f.Digest)
		}
		rows = append(rows, row)
	}
	return rows
}

// LogUnits logs one status line per function.
func LogUnits(report *pipeline.Report) {
	for _, f := range report.Functions {
		output.Info(output.FormatUnitLine(f.Function, string(f.Status)))
	}
}

// PrintError logs err. A function failure is reported on that function's
// logger so the failing function is named first.
func PrintError(msg string, err error) {
	var ue *assemble.UnitError
	if errors.As(err, &ue) {
		output.Error(output.FormatUnitLine(ue.Unit, output.StatusFailed))
		output.UnitLogger(ue.Unit).Error(msg, "phase", ue.Phase, "error", ue.Cause)
		return
	}
	output.Error(msg, "error", err)
}

// HumanSize formats a byte count.
func HumanSize(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := unit, 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func shortDigest(d string) string {
	d = strings.TrimPrefix(d, "blake3:")
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
