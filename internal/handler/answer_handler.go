package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/answerbase/answerbase/internal/parser"
	"github.com/answerbase/answerbase/internal/pkg/response"
	"github.com/answerbase/answerbase/internal/service"
)

// AnswerHandler exposes the answering pipeline: one question at a time or a
// whole questionnaire document.
type AnswerHandler struct {
	answers       *service.AnswerService
	batch         *service.BatchService
	parser        *parser.DocumentParser
	maxUploadSize int64
}

func NewAnswerHandler(answers *service.AnswerService, batch *service.BatchService, p *parser.DocumentParser, maxUploadSize int64) *AnswerHandler {
	return &AnswerHandler{answers: answers, batch: batch, parser: p, maxUploadSize: maxUploadSize}
}

type answerQuestionRequest struct {
	Question string `json:"question"`
}

// AnswerQuestion handles a single ad-hoc question. Unlike batch fills, a
// synthesis failure here is surfaced to the caller.
func (h *AnswerHandler) AnswerQuestion(c *gin.Context) {
	var req answerQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.answers.Answer(c.Request.Context(), req.Question)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// FillQuestionnaire extracts the questions from the uploaded template and
// answers them all, preserving document order.
func (h *AnswerHandler) FillQuestionnaire(c *gin.Context) {
	filename, content, err := readUpload(c, h.maxUploadSize)
	if err != nil {
		handleError(c, err)
		return
	}
	extracted, err := h.parser.Parse(c.Request.Context(), filename, content, true)
	if err != nil {
		handleError(c, err)
		return
	}
	questions := make([]string, 0, len(extracted))
	for _, qa := range extracted {
		questions = append(questions, qa.Question)
	}
	results, summary := h.batch.Fill(c.Request.Context(), questions)
	response.Success(c, gin.H{
		"total_questions": len(results),
		"results":         results,
		"summary":         summary,
	})
}
