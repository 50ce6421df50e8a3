package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	apperr "github.com/answerbase/answerbase/internal/pkg/errors"
	"github.com/answerbase/answerbase/internal/pkg/response"
)

// handleError maps the error taxonomy onto HTTP statuses. Client errors keep
// their message; everything else gets a generic detail so internals never
// leak into responses.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get("request_id")
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	switch {
	case apperr.IsInvalid(err):
		response.Error(c, http.StatusBadRequest, err.Error())
	case apperr.IsNotFound(err):
		response.Error(c, http.StatusNotFound, err.Error())
	case apperr.IsProvider(err):
		response.Error(c, http.StatusServiceUnavailable, "ai provider unavailable")
	case errors.Is(err, apperr.ErrSynthesis):
		response.Error(c, http.StatusBadGateway, "answer synthesis failed")
	default:
		response.Error(c, http.StatusInternalServerError, "internal error")
	}
}

// readUpload pulls the multipart "file" part into memory, enforcing the
// configured size limit.
func readUpload(c *gin.Context, maxSize int64) (string, []byte, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("%w: file is required", apperr.ErrInvalid)
	}
	if maxSize > 0 && file.Size > maxSize {
		return "", nil, fmt.Errorf("%w: file exceeds size limit", apperr.ErrInvalid)
	}
	opened, err := file.Open()
	if err != nil {
		return "", nil, fmt.Errorf("%w: failed to open file", apperr.ErrInvalid)
	}
	defer opened.Close()
	limit := int64(-1)
	if maxSize > 0 {
		limit = maxSize + 1
	}
	var content []byte
	if limit > 0 {
		content, err = io.ReadAll(io.LimitReader(opened, limit))
	} else {
		content, err = io.ReadAll(opened)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%w: failed to read file", apperr.ErrInvalid)
	}
	if maxSize > 0 && int64(len(content)) > maxSize {
		return "", nil, fmt.Errorf("%w: file exceeds size limit", apperr.ErrInvalid)
	}
	return file.Filename, content, nil
}
