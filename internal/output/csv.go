// Package output implements the W3 result sinks: the per-job CSV rows, the
// tabular/raw run summary, and DOT graph emission (delegating to
// internal/graph's existing writer).
//
// Grounded on original_source/include/transitionSystem.hpp's makeCSVFile
// and getFormattedOutput.
package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/schedcheck/schedcheck/internal/interval"
	"github.com/schedcheck/schedcheck/internal/job"
)

// WriteCSV renders one row per job in jobs: taskId, jobIndex,
// bestCaseCompletion, worstCaseCompletion, bestCaseResponse,
// worstCaseResponse. A job never dispatched is emitted as -1,-1,-1,-1.
// Response time is completion minus arrival, min vs min and max vs max.
func WriteCSV(w io.Writer, jobs []job.Job, responseTimes map[job.ID]interval.Interval) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"taskId", "jobIndex", "bestCaseCompletion", "worstCaseCompletion", "bestCaseResponse", "worstCaseResponse"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, jb := range jobs {
		completion, dispatched := responseTimes[jb.ID]
		row := []string{
			strconv.FormatUint(jb.ID.TaskID, 10),
			strconv.FormatUint(jb.ID.JobIndex, 10),
		}
		if !dispatched {
			row = append(row, "-1", "-1", "-1", "-1")
		} else {
			bestResponse := completion.Lo - jb.Arrival.Lo
			worstResponse := completion.Hi - jb.Arrival.Hi
			row = append(row,
				strconv.FormatInt(completion.Lo, 10),
				strconv.FormatInt(completion.Hi, 10),
				strconv.FormatInt(bestResponse, 10),
				strconv.FormatInt(worstResponse, 10),
			)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return cw.Error()
}
