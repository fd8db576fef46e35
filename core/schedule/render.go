package schedule

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// WriteTable prints one row per scheduled activity, ordered by start time,
// with its start, finish and demand vector.
func (s *Schedule) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTIVITY\tSTART\tFINISH\tDEMAND")
	for _, t := range s.StartEvents() {
		for _, a := range s.StartingAt(t) {
			dem := make([]string, 0, s.graph.NumResources())
			for _, d := range s.graph.Demand(a) {
				dem = append(dem, fmt.Sprint(d))
			}
			fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", a, t, t+s.graph.Duration(a), strings.Join(dem, " "))
		}
	}
	fmt.Fprintf(tw, "makespan\t\t%d\t\n", s.Makespan())
	return tw.Flush()
}
