package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"sqsbackoff/internal/backoff"
)

func printSchedule(w io.Writer, schedule backoff.Schedule) error {
	fmt.Fprintf(w, "max_attempts=%d max_allowed_delay=%ds\n\n", schedule.MaxAttempts(), schedule.MaxAllowedDelay())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RECEIVE COUNT\tATTEMPT INDEX\tRETRY\tDELAY (s)")
	for i, d := range schedule.Table() {
		fmt.Fprintf(tw, "%d\t%d\t%t\t%d\n", i+1, d.AttemptIndex, d.ShouldRetry, d.DelaySeconds)
	}
	return tw.Flush()
}
