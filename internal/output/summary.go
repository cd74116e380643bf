package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/schedcheck/schedcheck/internal/engine"
)

// SummaryRow is the §6 summary output row for one run.
type SummaryRow struct {
	OutputFile string
	Summary    engine.Summary
}

// WriteSummaryTable renders one or more SummaryRows as an aligned table,
// grounded on the column-aligned reporting style used elsewhere in the
// example pack (text/tabwriter).
func WriteSummaryTable(w io.Writer, rows []SummaryRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OUTPUT\tSCHEDULABLE\tSTATES\tCPU_S\tRAM_MIB\tTIMED_OUT\tGROUPS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%t\t%d\t%.3f\t%.1f\t%t\t%d\n",
			r.OutputFile, r.Summary.Schedulable, r.Summary.NumStates,
			r.Summary.CPUSeconds, r.Summary.RAMMiB, r.Summary.TimedOut, r.Summary.NumGroups)
	}
	return tw.Flush()
}

// WriteSummaryRaw renders the same rows as comma-separated values, selected
// by the CLI's --raw flag.
func WriteSummaryRaw(w io.Writer, rows []SummaryRow) error {
	for _, r := range rows {
		_, err := fmt.Fprintf(w, "%s,%t,%d,%.3f,%.1f,%t,%d\n",
			r.OutputFile, r.Summary.Schedulable, r.Summary.NumStates,
			r.Summary.CPUSeconds, r.Summary.RAMMiB, r.Summary.TimedOut, r.Summary.NumGroups)
		if err != nil {
			return err
		}
	}
	return nil
}
