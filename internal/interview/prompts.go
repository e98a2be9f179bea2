package interview

import (
	_ "embed"
	"fmt"
	"strings"
)

var (
	//go:embed prompts/question.md
	questionTemplate string
	//go:embed prompts/evaluation.md
	evaluationTemplate string
	//go:embed prompts/clarification.md
	clarificationTemplate string
)

const noHistory = "No previous conversation."

func buildQuestionPrompt(resumeText string, history []Entry) string {
	return fill(questionTemplate, map[string]string{
		"{{RESUME}}":  strings.TrimSpace(resumeText),
		"{{HISTORY}}": formatHistory(history),
	})
}

func buildEvaluationPrompt(question, answer string) string {
	return fill(evaluationTemplate, map[string]string{
		"{{QUESTION}}": strings.TrimSpace(question),
		"{{ANSWER}}":   strings.TrimSpace(answer),
	})
}

func buildClarificationPrompt(question, answer string) string {
	return fill(clarificationTemplate, map[string]string{
		"{{QUESTION}}": strings.TrimSpace(question),
		"{{ANSWER}}":   strings.TrimSpace(answer),
	})
}

// formatHistory renders previous rounds as numbered Q/A lines.
func formatHistory(history []Entry) string {
	if len(history) == 0 {
		return noHistory
	}

	var b strings.Builder
	for i, entry := range history {
		fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n", i+1, entry.Question, i+1, entry.Answer)
	}
	return strings.TrimRight(b.String(), "\n")
}

func fill(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for placeholder, value := range values {
		pairs = append(pairs, placeholder, value)
	}
	// A single pass keeps user text containing placeholders from being expanded again.
	return strings.TrimSpace(strings.NewReplacer(pairs...).Replace(template))
}
