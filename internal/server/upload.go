package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/safdarjung/resume-interview/internal/resume"
)

var errMissingResume = &requestError{err: errors.New(`multipart field "resume" is required`)}

// requestError marks a malformed request.
type requestError struct{ err error }

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return &requestError{err: err} }

// readResume extracts the optional "resume" multipart file. provided is false
// when the request carries no such file.
func readResume(c *gin.Context) (text string, provided bool, err error) {
	header, err := c.FormFile(resumeField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", false, nil
		}
		return "", false, badRequest(fmt.Errorf("read upload: %w", err))
	}
	if header.Size > resume.MaxSize {
		return "", true, resume.ErrTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return "", true, badRequest(fmt.Errorf("open upload: %w", err))
	}
	defer file.Close()

	text, err = resume.ReadAll(header.Filename, file)
	if err != nil {
		if errors.Is(err, resume.ErrTooLarge) || errors.Is(err, resume.ErrUnsupportedFormat) {
			return "", true, err
		}
		return "", true, badRequest(err)
	}

	return text, true, nil
}
