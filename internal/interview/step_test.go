package interview

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/safdarjung/resume-interview/internal/ai"
)

func mustStep(t *testing.T, s State, a Action) (State, Effect) {
	t.Helper()
	next, effect, err := Step(s, a)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", ActionName(a), err)
	}
	return next, effect
}

// answeredState returns a state waiting for confirmation in round 0.
func answeredState(t *testing.T) State {
	t.Helper()
	s, _ := mustStep(t, NewState(ai.ChoiceBoth), LoadResume{Text: "Built X using Y"})
	s, _ = mustStep(t, s, QuestionGenerated{Result: ai.Result{Text: "Q?"}})
	s, _ = mustStep(t, s, AnswerEvaluated{Answer: "A", Result: ai.Result{Text: "E"}})
	return s
}

func TestPhaseTransitions(t *testing.T) {
	s := NewState(ai.ChoiceBoth)
	if s.Phase() != PhaseNeedResume {
		t.Fatalf("expected need_resume, got %s", s.Phase())
	}

	s, effect := mustStep(t, s, LoadResume{Text: "  Built X using Y  "})
	if s.Phase() != PhaseAwaitingQuestion {
		t.Fatalf("expected awaiting_question, got %s", s.Phase())
	}
	if s.ResumeText != "Built X using Y" {
		t.Fatalf("expected trimmed resume text, got %q", s.ResumeText)
	}
	if effect.Kind != EffectGenerateQuestion || effect.ResumeText != "Built X using Y" {
		t.Fatalf("expected question effect, got %+v", effect)
	}

	s, effect = mustStep(t, s, QuestionGenerated{Result: ai.Result{Text: "What is Y?"}})
	if s.Phase() != PhaseAwaitingAnswer || effect.Kind != EffectNone {
		t.Fatalf("expected awaiting_answer without effect, got %s %+v", s.Phase(), effect)
	}

	_, effect = mustStep(t, s, SubmitAnswer{Answer: "I used Y for Z"})
	if effect.Kind != EffectEvaluateAnswer || effect.Answer != "I used Y for Z" || effect.Question != "What is Y?" || effect.Model != ai.ChoiceBoth {
		t.Fatalf("unexpected evaluate effect: %+v", effect)
	}

	s, _ = mustStep(t, s, AnswerEvaluated{Answer: "I used Y for Z", Result: ai.Result{Text: "80/100"}})
	if s.Phase() != PhaseAwaitingConfirmation || !s.AwaitingConfirmation {
		t.Fatalf("expected awaiting_confirmation, got %s", s.Phase())
	}

	_, effect = mustStep(t, s, RequestClarification{})
	if effect.Kind != EffectGenerateClarification || effect.Answer != "I used Y for Z" {
		t.Fatalf("unexpected clarification effect: %+v", effect)
	}

	s, _ = mustStep(t, s, ClarificationGenerated{Result: ai.Result{Text: "Mention Z's scale"}})
	if s.CurrentClarification != "Mention Z's scale" || s.Phase() != PhaseAwaitingConfirmation {
		t.Fatalf("unexpected clarification state: %+v", s)
	}

	s, effect = mustStep(t, s, Advance{})
	if s.Round != 1 || len(s.History) != 1 {
		t.Fatalf("expected round 1 with one entry, got %d/%d", s.Round, len(s.History))
	}
	if s.CurrentQuestion != "" || s.CurrentAnswer != "" || s.CurrentEvaluation != "" || s.CurrentClarification != "" || s.AwaitingConfirmation {
		t.Fatalf("expected current round fields cleared: %+v", s)
	}
	if effect.Kind != EffectGenerateQuestion || len(effect.History) != 1 {
		t.Fatalf("expected next question effect with history, got %+v", effect)
	}

	want := Entry{Question: "What is Y?", Answer: "I used Y for Z", Evaluation: "80/100", Clarification: "Mention Z's scale"}
	if s.History[0] != want {
		t.Fatalf("unexpected entry: %+v", s.History[0])
	}
}

func TestEmptyAnswerChangesNothing(t *testing.T) {
	s, _ := mustStep(t, NewState(ai.ChoiceGemini), LoadResume{Text: "resume"})
	s, _ = mustStep(t, s, QuestionGenerated{Result: ai.Result{Text: "Q?"}})

	for _, answer := range []string{"", "   ", "\n\t"} {
		next, effect, err := Step(s, SubmitAnswer{Answer: answer})
		if !errors.Is(err, ErrEmptyAnswer) {
			t.Fatalf("expected ErrEmptyAnswer for %q, got %v", answer, err)
		}
		if effect.Kind != EffectNone {
			t.Fatalf("expected no effect, got %+v", effect)
		}
		if next.Round != s.Round || next.AwaitingConfirmation != s.AwaitingConfirmation || len(next.History) != len(s.History) || next.CurrentAnswer != "" {
			t.Fatalf("state changed on empty answer: %+v", next)
		}
	}
}

func TestNoResumeBlocksEverything(t *testing.T) {
	s := NewState(ai.ChoiceBoth)

	for _, a := range []Action{RequestQuestion{}, SubmitAnswer{Answer: "x"}, RequestClarification{}, Advance{}} {
		if _, _, err := Step(s, a); !errors.Is(err, ErrNoResume) {
			t.Fatalf("%s: expected ErrNoResume, got %v", ActionName(a), err)
		}
	}

	if _, _, err := Step(s, LoadResume{Text: "  "}); !errors.Is(err, ErrEmptyResume) {
		t.Fatalf("expected ErrEmptyResume, got %v", err)
	}

	// Model selection is allowed before a resume is uploaded.
	next, _ := mustStep(t, s, SelectModel{Choice: "qwen"})
	if next.Model != ai.ChoiceQwen {
		t.Fatalf("expected qwen, got %q", next.Model)
	}
}

func TestOutOfPhaseActions(t *testing.T) {
	s, _ := mustStep(t, NewState(ai.ChoiceBoth), LoadResume{Text: "resume"})

	// Awaiting a question: nothing to answer or confirm yet.
	for _, a := range []Action{SubmitAnswer{Answer: "x"}, RequestClarification{}, Advance{}, ClarificationGenerated{}} {
		if _, _, err := Step(s, a); !errors.Is(err, ErrUnexpectedAction) {
			t.Fatalf("%s: expected ErrUnexpectedAction, got %v", ActionName(a), err)
		}
	}

	confirming := answeredState(t)
	for _, a := range []Action{SubmitAnswer{Answer: "again"}, QuestionGenerated{Result: ai.Result{Text: "Q2"}}} {
		if _, _, err := Step(confirming, a); !errors.Is(err, ErrUnexpectedAction) {
			t.Fatalf("%s: expected ErrUnexpectedAction, got %v", ActionName(a), err)
		}
	}

	// A pending question makes RequestQuestion a no-op.
	next, effect := mustStep(t, confirming, RequestQuestion{})
	if effect.Kind != EffectNone || next.CurrentQuestion != confirming.CurrentQuestion {
		t.Fatalf("expected no-op, got %+v", effect)
	}

	if _, _, err := Step(confirming, SelectModel{Choice: "gpt"}); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestCompletedAfterMaxRounds(t *testing.T) {
	s, _ := mustStep(t, NewState(ai.ChoiceBoth), LoadResume{Text: "resume"})

	for round := 0; round < MaxRounds; round++ {
		s, _ = mustStep(t, s, QuestionGenerated{Result: ai.Result{Text: "Q"}})
		s, _ = mustStep(t, s, AnswerEvaluated{Answer: "A", Result: ai.Result{Text: "E"}})

		var effect Effect
		s, effect = mustStep(t, s, Advance{})

		if round == MaxRounds-1 {
			if effect.Kind != EffectNone {
				t.Fatalf("expected no question after the last round, got %+v", effect)
			}
		} else if effect.Kind != EffectGenerateQuestion {
			t.Fatalf("round %d: expected question effect, got %+v", round, effect)
		}
	}

	if s.Phase() != PhaseCompleted || s.Round != MaxRounds {
		t.Fatalf("expected completed at round %d, got %s/%d", MaxRounds, s.Phase(), s.Round)
	}

	for _, a := range []Action{RequestQuestion{}, LoadResume{Text: "new"}, SelectModel{Choice: ai.ChoiceQwen}, Advance{}} {
		next, effect, err := Step(s, a)
		if !errors.Is(err, ErrCompleted) {
			t.Fatalf("%s: expected ErrCompleted, got %v", ActionName(a), err)
		}
		if effect.Kind != EffectNone || next.Round != MaxRounds {
			t.Fatalf("%s: completed state must not change", ActionName(a))
		}
	}
}

func TestFailuresAreRecorded(t *testing.T) {
	s, _ := mustStep(t, NewState(ai.ChoiceBoth), LoadResume{Text: "resume"})
	s, _ = mustStep(t, s, QuestionGenerated{Result: ai.Failure(errors.New("timeout"))})

	if s.CurrentQuestion != "Error during question generation: timeout" {
		t.Fatalf("unexpected question text: %q", s.CurrentQuestion)
	}
	if !s.CurrentFailures.Has(FailedQuestion) {
		t.Fatal("expected question failure to be recorded")
	}

	s, _ = mustStep(t, s, AnswerEvaluated{Answer: "A", Result: ai.Failure(errors.New("502"))})
	s, _ = mustStep(t, s, ClarificationGenerated{Result: ai.Failure(errors.New("quota"))})
	if !s.CurrentFailures.Has(FailedClarification) {
		t.Fatal("expected clarification failure to be recorded")
	}

	// A later successful clarification clears its flag.
	s, _ = mustStep(t, s, ClarificationGenerated{Result: ai.Result{Text: "ok"}})
	if s.CurrentFailures.Has(FailedClarification) {
		t.Fatal("expected clarification failure to be cleared")
	}

	s, _ = mustStep(t, s, Advance{})
	got := s.History[0].Failures.List()
	if len(got) != 2 || got[0] != "question" || got[1] != "evaluation" {
		t.Fatalf("unexpected failures: %v", got)
	}
	if s.CurrentFailures != 0 {
		t.Fatal("expected failures reset for the new round")
	}
}

func TestStepDoesNotAliasHistory(t *testing.T) {
	s := answeredState(t)
	s, _ = mustStep(t, s, Advance{})
	s, _ = mustStep(t, s, QuestionGenerated{Result: ai.Result{Text: "Q2"}})
	s, _ = mustStep(t, s, AnswerEvaluated{Answer: "A2", Result: ai.Result{Text: "E2"}})

	a, _ := mustStep(t, s, Advance{})
	a.History[0].Answer = "mutated"

	if s.History[0].Answer == "mutated" {
		t.Fatal("returned state shares history with its input")
	}
}

// TestInvariantsUnderRandomActions feeds random action sequences and checks
// the round and history invariants after every step.
func TestInvariantsUnderRandomActions(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	actions := []func() Action{
		func() Action { return LoadResume{Text: "resume"} },
		func() Action { return SelectModel{Choice: ai.Choices[rng.Intn(len(ai.Choices))]} },
		func() Action { return RequestQuestion{} },
		func() Action { return QuestionGenerated{Result: ai.Result{Text: "Q"}} },
		func() Action { return SubmitAnswer{Answer: []string{"", " ", "answer"}[rng.Intn(3)]} },
		func() Action { return AnswerEvaluated{Answer: "answer", Result: ai.Result{Text: "E"}} },
		func() Action { return RequestClarification{} },
		func() Action { return ClarificationGenerated{Result: ai.Failure(errors.New("boom"))} },
		func() Action { return Advance{} },
	}

	for run := 0; run < 200; run++ {
		s := NewState(ai.ChoiceBoth)
		for i := 0; i < 80; i++ {
			a := actions[rng.Intn(len(actions))]()
			next, _, err := Step(s, a)

			if err != nil && (next.Round != s.Round || len(next.History) != len(s.History) || next.AwaitingConfirmation != s.AwaitingConfirmation) {
				t.Fatalf("rejected %s changed state", ActionName(a))
			}
			if next.Round < s.Round {
				t.Fatalf("round decreased from %d to %d", s.Round, next.Round)
			}
			if next.Round > MaxRounds {
				t.Fatalf("round %d exceeds maximum", next.Round)
			}
			if len(next.History) != next.Round {
				t.Fatalf("history length %d != round %d", len(next.History), next.Round)
			}
			if next.Round == MaxRounds && next.Phase() != PhaseCompleted {
				t.Fatalf("expected completed at max rounds, got %s", next.Phase())
			}
			s = next
		}
	}
}
