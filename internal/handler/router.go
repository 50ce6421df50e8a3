package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/answerbase/answerbase/internal/pkg/response"
)

type RouterDeps struct {
	Knowledge *KnowledgeHandler
	Answers   *AnswerHandler
	Export    *ExportHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	api.POST("/upload-knowledge", deps.Knowledge.Upload)
	api.POST("/knowledge/add", deps.Knowledge.AddPair)
	api.GET("/knowledge", deps.Knowledge.List)
	api.GET("/stats", deps.Knowledge.Stats)
	api.GET("/sources", deps.Knowledge.Sources)
	api.GET("/sources/:name/file", deps.Knowledge.DownloadSource)
	api.DELETE("/knowledge/source/:name", deps.Knowledge.DeleteSource)
	api.DELETE("/knowledge/clear", deps.Knowledge.Clear)

	api.POST("/answer-question", deps.Answers.AnswerQuestion)
	api.POST("/fill-questionnaire", deps.Answers.FillQuestionnaire)
	api.POST("/export", deps.Export.Export)
}
