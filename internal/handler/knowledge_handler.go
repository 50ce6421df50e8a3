package handler

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/answerbase/answerbase/internal/model"
	"github.com/answerbase/answerbase/internal/pkg/response"
	"github.com/answerbase/answerbase/internal/service"
)

// KnowledgeHandler exposes knowledge base management: document upload,
// manual pairs, stats, sources and deletion.
type KnowledgeHandler struct {
	knowledge     *service.KnowledgeService
	maxUploadSize int64
}

func NewKnowledgeHandler(knowledge *service.KnowledgeService, maxUploadSize int64) *KnowledgeHandler {
	return &KnowledgeHandler{knowledge: knowledge, maxUploadSize: maxUploadSize}
}

func (h *KnowledgeHandler) Upload(c *gin.Context) {
	filename, content, err := readUpload(c, h.maxUploadSize)
	if err != nil {
		handleError(c, err)
		return
	}
	count, err := h.knowledge.ImportDocument(c.Request.Context(), filename, content)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"message":     fmt.Sprintf("Added %d Q&A pairs from %s", count, filepath.Base(filename)),
		"source_file": filepath.Base(filename),
		"count":       count,
	})
}

type addPairRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Source   string `json:"source"`
}

func (h *KnowledgeHandler) AddPair(c *gin.Context) {
	var req addPairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.knowledge.AddPair(c.Request.Context(), req.Question, req.Answer, req.Source); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Q&A pair added"})
}

func (h *KnowledgeHandler) Stats(c *gin.Context) {
	stats, err := h.knowledge.Stats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}

func (h *KnowledgeHandler) Sources(c *gin.Context) {
	sources, err := h.knowledge.Sources(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	if sources == nil {
		sources = []string{}
	}
	response.Success(c, gin.H{"sources": sources})
}

func (h *KnowledgeHandler) List(c *gin.Context) {
	pairs, err := h.knowledge.ListAll(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	if pairs == nil {
		pairs = []model.QAPair{}
	}
	response.Success(c, gin.H{"pairs": pairs})
}

func (h *KnowledgeHandler) DeleteSource(c *gin.Context) {
	name := c.Param("name")
	deleted, err := h.knowledge.DeleteSource(c.Request.Context(), name)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"message": fmt.Sprintf("Deleted %d Q&A pairs from %s", deleted, name),
		"deleted": deleted,
	})
}

func (h *KnowledgeHandler) Clear(c *gin.Context) {
	if err := h.knowledge.ClearAll(c.Request.Context()); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Knowledge base cleared"})
}

// DownloadSource hands out the archived original of an imported document,
// redirecting when the store serves objects directly and streaming otherwise.
func (h *KnowledgeHandler) DownloadSource(c *gin.Context) {
	name := c.Param("name")
	if url := h.knowledge.SourceFileURL(name); url != "" {
		c.Redirect(http.StatusFound, url)
		return
	}
	rc, err := h.knowledge.OpenSourceFile(c.Request.Context(), name)
	if err != nil {
		handleError(c, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(name)))
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}
