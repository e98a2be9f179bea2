package interview

import (
	"fmt"
	"strings"
)

const (
	ReportTitle = "Interview Completed"
	reportIntro = "Thank you for participating in the interview. Below is your performance report:"
)

// Report renders history as a markdown transcript, one section per round.
func Report(history []Entry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n%s\n\n", ReportTitle, reportIntro)

	for i, entry := range history {
		fmt.Fprintf(&b, "### Round %d\n", i+1)
		fmt.Fprintf(&b, "**Question:** %s\n\n", entry.Question)
		fmt.Fprintf(&b, "**Your Answer:** %s\n\n", entry.Answer)
		fmt.Fprintf(&b, "**Evaluation:** %s\n\n", entry.Evaluation)
		if entry.Clarification != "" {
			fmt.Fprintf(&b, "**Clarification:** %s\n\n", entry.Clarification)
		}
		if failed := entry.Failures.List(); len(failed) > 0 {
			fmt.Fprintf(&b, "_Model errors this round: %s._\n\n", strings.Join(failed, ", "))
		}
		b.WriteString("---\n\n")
	}

	return b.String()
}
