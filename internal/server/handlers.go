package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/safdarjung/resume-interview/internal/ai"
	"github.com/safdarjung/resume-interview/internal/interview"
	"github.com/safdarjung/resume-interview/internal/logger"
	"github.com/safdarjung/resume-interview/internal/resume"
)

const (
	resumeField     = "resume"
	modelField      = "model"
	maxUploadMemory = resume.MaxSize
)

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

type sessionView struct {
	ID            string            `json:"id"`
	Phase         interview.Phase   `json:"phase"`
	Round         int               `json:"round"`
	MaxRounds     int               `json:"max_rounds"`
	Model         ai.Choice         `json:"model"`
	Question      string            `json:"question,omitempty"`
	Answer        string            `json:"answer,omitempty"`
	Evaluation    string            `json:"evaluation,omitempty"`
	Clarification string            `json:"clarification,omitempty"`
	Failures      []string          `json:"failures,omitempty"`
	History       []interview.Entry `json:"history"`
	Message       string            `json:"message,omitempty"`
}

type modelRequest struct {
	Model string `json:"model"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

func newView(id string, session *interview.Session) sessionView {
	state := session.State()
	history := state.History
	if history == nil {
		history = []interview.Entry{}
	}

	view := sessionView{
		ID:            id,
		Phase:         state.Phase(),
		Round:         state.Round,
		MaxRounds:     interview.MaxRounds,
		Model:         state.Model,
		Question:      state.CurrentQuestion,
		Answer:        state.CurrentAnswer,
		Evaluation:    state.CurrentEvaluation,
		Clarification: state.CurrentClarification,
		Failures:      state.CurrentFailures.List(),
		History:       history,
	}

	switch view.Phase {
	case interview.PhaseNeedResume:
		view.Message = interview.ErrNoResume.Error()
	case interview.PhaseCompleted:
		view.Message = interview.ReportTitle
	}

	return view
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.store.Len()})
}

func (s *Server) createSession(c *gin.Context) {
	var choice ai.Choice
	if raw := c.PostForm(modelField); raw != "" {
		parsed, err := ai.ParseChoice(raw)
		if err != nil {
			s.fail(c, err)
			return
		}
		choice = parsed
	}

	text, provided, err := readResume(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	id := s.store.Create(s.newSession)

	var view sessionView
	err = s.store.With(id, func(session *interview.Session) error {
		if choice != "" {
			if err := session.SelectModel(c.Request.Context(), choice); err != nil {
				return err
			}
		}
		if provided {
			if err := session.LoadResume(c.Request.Context(), text); err != nil {
				return err
			}
		}
		view = newView(id, session)
		return nil
	})
	if err != nil {
		_ = s.store.Delete(id)
		s.fail(c, err)
		return
	}

	s.logger.Info("session created", zap.String(logger.FieldSession, id), zap.Bool("resume", provided))
	c.JSON(http.StatusCreated, view)
}

func (s *Server) getSession(c *gin.Context) {
	s.respond(c, func(*interview.Session) error { return nil })
}

func (s *Server) deleteSession(c *gin.Context) {
	if err := s.store.Delete(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) uploadResume(c *gin.Context) {
	text, provided, err := readResume(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	if !provided {
		s.fail(c, errMissingResume)
		return
	}

	s.respond(c, func(session *interview.Session) error {
		return session.LoadResume(c.Request.Context(), text)
	})
}

func (s *Server) selectModel(c *gin.Context) {
	var req modelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err))
		return
	}

	s.respond(c, func(session *interview.Session) error {
		return session.SelectModel(c.Request.Context(), ai.Choice(req.Model))
	})
}

func (s *Server) submitAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err))
		return
	}

	s.respond(c, func(session *interview.Session) error {
		return session.SubmitAnswer(c.Request.Context(), req.Answer)
	})
}

func (s *Server) clarify(c *gin.Context) {
	s.respond(c, func(session *interview.Session) error {
		return session.Clarify(c.Request.Context())
	})
}

func (s *Server) advance(c *gin.Context) {
	s.respond(c, func(session *interview.Session) error {
		return session.Advance(c.Request.Context())
	})
}

func (s *Server) report(c *gin.Context) {
	var report string
	err := s.store.With(c.Param("id"), func(session *interview.Session) error {
		var err error
		report, err = session.Report()
		return err
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(report))
}

// respond applies fn to the addressed session and writes its resulting view.
func (s *Server) respond(c *gin.Context, fn func(*interview.Session) error) {
	id := c.Param("id")

	var view sessionView
	err := s.store.With(id, func(session *interview.Session) error {
		if err := fn(session); err != nil {
			return err
		}
		view = newView(id, session)
		return nil
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error(), Code: status})
}

func statusFor(err error) int {
	var bad *requestError
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, interview.ErrEmptyAnswer):
		return http.StatusUnprocessableEntity
	case errors.Is(err, interview.ErrNoResume),
		errors.Is(err, interview.ErrCompleted),
		errors.Is(err, interview.ErrNotCompleted),
		errors.Is(err, interview.ErrUnexpectedAction):
		return http.StatusConflict
	case errors.Is(err, resume.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, resume.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ai.ErrUnknownChoice),
		errors.Is(err, interview.ErrUnknownModel),
		errors.Is(err, interview.ErrEmptyResume),
		errors.Is(err, resume.ErrNoText),
		errors.As(err, &bad):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
