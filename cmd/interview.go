package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/safdarjung/resume-interview/internal/ai"
	"github.com/safdarjung/resume-interview/internal/interview"
	"github.com/safdarjung/resume-interview/internal/logger"
	"github.com/safdarjung/resume-interview/internal/resume"
)

const (
	ActionClarify     = "Need more clarification"
	ActionProceed     = "Proceed to next question"
	ActionChangeModel = "Change model"
	ActionQuit        = "Quit"

	wordWrap = 100
)

var errExit = errors.New("exit requested")

var actions = []string{ActionClarify, ActionProceed, ActionChangeModel, ActionQuit}

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run a mock interview in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		runInterviewCommand(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().StringP("resume", "r", "", "resume file to interview on (pdf, txt or md)")
	interviewCmd.Flags().StringP("model", "m", "", "evaluation model: Gemini, Qwen or Both (asked interactively when unset)")
	interviewCmd.Flags().StringP("report", "o", "", "write the final markdown report to this file")

	interviewCmd.MarkFlagRequired("resume")
}

// terminal is the user-facing side of an interview.
type terminal interface {
	Show(markdown string) error
	Answer(round int) (string, error)
	Action() (string, error)
	ChooseModel(current ai.Choice) (ai.Choice, error)
}

func runInterviewCommand(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the interviewer", zap.String("version", version))

	resumePath, _ := cmd.Flags().GetString("resume")
	text, err := readResumeFile(resumePath)
	if err != nil {
		logger.Fatal("reading resume", zap.String("file", resumePath), zap.Error(err))
	}

	logger.Debug("resume extracted", zap.Int("chars", len(text)))

	assistant, err := newAssistant(ctx, config, logger)
	if err != nil {
		logger.Fatal("creating the assistant", zap.Error(err))
	}

	term, err := newPromptTerminal(cmd.OutOrStdout())
	if err != nil {
		logger.Fatal("creating the renderer", zap.Error(err))
	}

	choice := config.DefaultModel
	if raw, _ := cmd.Flags().GetString("model"); raw != "" {
		if choice, err = ai.ParseChoice(raw); err != nil {
			logger.Fatal("parsing --model", zap.Error(err))
		}
	} else if choice, err = term.ChooseModel(choice); err != nil {
		logger.Info("exiting", zap.Error(err))
		return
	}

	session := interview.NewSession(assistant, choice, logger)
	if err := session.LoadResume(ctx, text); err != nil {
		logger.Fatal("starting the interview", zap.Error(err))
	}

	report, err := runInterview(ctx, session, term, logger)
	if err != nil {
		if isExit(err) {
			logger.Info("exiting", zap.String("reason", "interview stopped by user"), zap.Int("round", session.State().Round))
			return
		}
		logger.Fatal("interview failed", zap.Error(err))
	}

	if reportPath, _ := cmd.Flags().GetString("report"); reportPath != "" {
		if err := os.WriteFile(reportPath, []byte(report), 0o644); err != nil {
			logger.Fatal("writing report", zap.String("file", reportPath), zap.Error(err))
		}
		logger.Info("report written", zap.String("file", reportPath))
	}
}

func readResumeFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return resume.ReadAll(path, f)
}

// runInterview drives the session until it completes and returns the report.
func runInterview(ctx context.Context, session *interview.Session, term terminal, log *zap.Logger) (string, error) {
	shown := -1

	for {
		state := session.State()

		switch state.Phase() {
		case interview.PhaseNeedResume:
			return "", interview.ErrNoResume

		case interview.PhaseCompleted:
			report, err := session.Report()
			if err != nil {
				return "", err
			}
			return report, term.Show(report)

		case interview.PhaseAwaitingQuestion:
			if err := session.EnsureQuestion(ctx); err != nil {
				return "", err
			}

		case interview.PhaseAwaitingAnswer:
			if shown != state.Round {
				shown = state.Round
				if err := term.Show(fmt.Sprintf("### Question %d of %d\n\n%s", state.Round+1, interview.MaxRounds, state.CurrentQuestion)); err != nil {
					return "", err
				}
			}

			answer, err := term.Answer(state.Round)
			if err != nil {
				return "", err
			}

			if err := session.SubmitAnswer(ctx, answer); err != nil {
				if errors.Is(err, interview.ErrEmptyAnswer) {
					log.Warn(err.Error())
					continue
				}
				return "", err
			}

			if err := term.Show("### Evaluation\n\n" + session.State().CurrentEvaluation); err != nil {
				return "", err
			}

		case interview.PhaseAwaitingConfirmation:
			action, err := term.Action()
			if err != nil {
				return "", err
			}

			if err := handleAction(ctx, action, session, term); err != nil {
				return "", err
			}
		}
	}
}

func handleAction(ctx context.Context, action string, session *interview.Session, term terminal) error {
	switch action {
	case ActionClarify:
		if err := session.Clarify(ctx); err != nil {
			return err
		}
		return term.Show("### Clarification\n\n" + session.State().CurrentClarification)
	case ActionProceed:
		return session.Advance(ctx)
	case ActionChangeModel:
		choice, err := term.ChooseModel(session.State().Model)
		if err != nil {
			return err
		}
		return session.SelectModel(ctx, choice)
	case ActionQuit:
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func isExit(err error) bool {
	return errors.Is(err, errExit) ||
		errors.Is(err, promptui.ErrInterrupt) ||
		errors.Is(err, promptui.ErrEOF) ||
		errors.Is(err, context.Canceled)
}

// promptTerminal reads input with promptui and renders markdown with glamour.
type promptTerminal struct {
	renderer *glamour.TermRenderer
	out      io.Writer
}

func newPromptTerminal(out io.Writer) (*promptTerminal, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return nil, err
	}
	return &promptTerminal{renderer: renderer, out: out}, nil
}

func (p *promptTerminal) Show(markdown string) error {
	rendered, err := p.renderer.Render(markdown)
	if err != nil {
		rendered = markdown + "\n"
	}
	_, err = io.WriteString(p.out, rendered)
	return err
}

func (p *promptTerminal) Answer(round int) (string, error) {
	prompt := promptui.Prompt{
		Label: fmt.Sprintf("Your answer (%d/%d)", round+1, interview.MaxRounds),
	}
	return prompt.Run()
}

func (p *promptTerminal) Action() (string, error) {
	prompt := promptui.Select{
		Label: "What next?",
		Items: actions,
	}
	_, action, err := prompt.Run()
	return action, err
}

func (p *promptTerminal) ChooseModel(current ai.Choice) (ai.Choice, error) {
	prompt := promptui.Select{
		Label:     "Evaluation model",
		Items:     ai.Choices,
		CursorPos: max(slices.Index(ai.Choices, current), 0),
	}
	idx, _, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return ai.Choices[idx], nil
}
