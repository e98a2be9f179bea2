package interview

import (
	"strings"
	"testing"
)

func TestReport(t *testing.T) {
	report := Report([]Entry{
		{Question: "Q1", Answer: "A1", Evaluation: "E1", Clarification: "C1"},
		{Question: "Q2", Answer: "A2", Evaluation: "E2", Failures: FailedEvaluation},
	})

	if !strings.HasPrefix(report, "# Interview Completed\n\n") {
		t.Fatalf("unexpected header: %q", report)
	}

	round1 := "### Round 1\n**Question:** Q1\n\n**Your Answer:** A1\n\n**Evaluation:** E1\n\n**Clarification:** C1\n\n---\n\n"
	if !strings.Contains(report, round1) {
		t.Fatalf("round 1 not rendered as expected:\n%s", report)
	}

	round2 := report[strings.Index(report, "### Round 2"):]
	if strings.Contains(round2, "**Clarification:**") {
		t.Fatal("clarification must be omitted when empty")
	}
	if !strings.Contains(round2, "_Model errors this round: evaluation._") {
		t.Fatalf("expected failure note in round 2:\n%s", round2)
	}
}

func TestReportOrder(t *testing.T) {
	report := Report([]Entry{{Question: "first"}, {Question: "second"}, {Question: "third"}})

	first, second, third := strings.Index(report, "first"), strings.Index(report, "second"), strings.Index(report, "third")
	if !(first < second && second < third) {
		t.Fatal("entries must be rendered in order")
	}
}
