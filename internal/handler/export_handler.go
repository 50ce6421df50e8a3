package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/answerbase/answerbase/internal/exporter"
	"github.com/answerbase/answerbase/internal/model"
	"github.com/answerbase/answerbase/internal/pkg/response"
)

// ExportHandler writes answered questionnaires back into their original
// template. The client resubmits the template together with the answers, so
// no per-session document state lives on the server.
type ExportHandler struct {
	exporter      *exporter.QuestionnaireExporter
	maxUploadSize int64
}

func NewExportHandler(e *exporter.QuestionnaireExporter, maxUploadSize int64) *ExportHandler {
	return &ExportHandler{exporter: e, maxUploadSize: maxUploadSize}
}

func (h *ExportHandler) Export(c *gin.Context) {
	filename, content, err := readUpload(c, h.maxUploadSize)
	if err != nil {
		handleError(c, err)
		return
	}
	raw := c.PostForm("answers")
	if strings.TrimSpace(raw) == "" {
		response.Error(c, http.StatusBadRequest, "answers field is required")
		return
	}
	var answers []model.AnswerResult
	if err := json.Unmarshal([]byte(raw), &answers); err != nil {
		response.Error(c, http.StatusBadRequest, "answers must be a JSON array of answer results")
		return
	}

	out, contentType, err := h.exporter.Export(filename, content, answers)
	if err != nil {
		handleError(c, err)
		return
	}
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	filled := strings.TrimSuffix(base, ext) + "_filled" + ext
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filled))
	c.Data(http.StatusOK, contentType, out)
}
