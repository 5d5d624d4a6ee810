package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/pageassist/localstore/app/logic/v1"
	"github.com/pageassist/localstore/app/response"
	"github.com/pageassist/localstore/pkg/types"
	"github.com/pageassist/localstore/pkg/utils"
)

type UserIDResponse struct {
	UserID string `json:"user_id"`
}

func (s *HttpSrv) GetUserID(c *gin.Context) {
	userID, err := v1.NewUserLogic(c, s.Core).GetUserID()
	respond(c, UserIDResponse{UserID: userID}, err)
}

type SetUserIDRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (s *HttpSrv) SetUserID(c *gin.Context) {
	var req SetUserIDRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	respond(c, UserIDResponse{UserID: req.UserID}, v1.NewUserLogic(c, s.Core).SetUserID(req.UserID))
}

func (s *HttpSrv) ListPrompts(c *gin.Context) {
	list, err := v1.NewPromptLogic(c, s.Core).List()
	respond(c, list, err)
}

func (s *HttpSrv) GetPrompt(c *gin.Context) {
	id, ok := requireParam(c, "prompt")
	if !ok {
		return
	}
	prompt, err := v1.NewPromptLogic(c, s.Core).Get(id)
	respond(c, prompt, err)
}

func (s *HttpSrv) CreatePrompt(c *gin.Context) {
	var req v1.SavePromptRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	prompt, err := v1.NewPromptLogic(c, s.Core).Save(req)
	respond(c, prompt, err)
}

func (s *HttpSrv) UpdatePrompt(c *gin.Context) {
	id, ok := requireParam(c, "prompt")
	if !ok {
		return
	}
	var req v1.SavePromptRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	prompt, err := v1.NewPromptLogic(c, s.Core).Update(id, req)
	respond(c, prompt, err)
}

func (s *HttpSrv) DeletePrompt(c *gin.Context) {
	id, ok := requireParam(c, "prompt")
	if !ok {
		return
	}
	respond(c, nil, v1.NewPromptLogic(c, s.Core).Delete(id))
}

func (s *HttpSrv) ListWebshares(c *gin.Context) {
	list, err := v1.NewWebshareLogic(c, s.Core).List()
	respond(c, list, err)
}

func (s *HttpSrv) CreateWebshare(c *gin.Context) {
	var req v1.SaveWebshareRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	webshare, err := v1.NewWebshareLogic(c, s.Core).Save(req)
	respond(c, webshare, err)
}

func (s *HttpSrv) DeleteWebshare(c *gin.Context) {
	id, ok := requireParam(c, "webshare")
	if !ok {
		return
	}
	respond(c, nil, v1.NewWebshareLogic(c, s.Core).Delete(id))
}

type SaveMemoryRequest struct {
	Content string `json:"content" binding:"required"`
}

func (s *HttpSrv) ListMemories(c *gin.Context) {
	list, err := v1.NewMemoryLogic(c, s.Core).List()
	respond(c, list, err)
}

type MemoryContextResponse struct {
	Context string `json:"context"`
}

func (s *HttpSrv) GetMemoryContext(c *gin.Context) {
	text, err := v1.NewMemoryLogic(c, s.Core).AsContext()
	respond(c, MemoryContextResponse{Context: text}, err)
}

func (s *HttpSrv) CreateMemory(c *gin.Context) {
	var req SaveMemoryRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	memory, err := v1.NewMemoryLogic(c, s.Core).Add(req.Content)
	respond(c, memory, err)
}

func (s *HttpSrv) UpdateMemory(c *gin.Context) {
	id, ok := requireParam(c, "memory")
	if !ok {
		return
	}
	var req SaveMemoryRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	memory, err := v1.NewMemoryLogic(c, s.Core).Update(id, req.Content)
	respond(c, memory, err)
}

func (s *HttpSrv) DeleteMemory(c *gin.Context) {
	id, ok := requireParam(c, "memory")
	if !ok {
		return
	}
	respond(c, nil, v1.NewMemoryLogic(c, s.Core).Delete(id))
}

func (s *HttpSrv) DeleteAllMemories(c *gin.Context) {
	respond(c, nil, v1.NewMemoryLogic(c, s.Core).DeleteAll())
}

func (s *HttpSrv) ListProcessedMedia(c *gin.Context) {
	list, err := v1.NewProcessedMediaLogic(c, s.Core).List()
	respond(c, list, err)
}

func (s *HttpSrv) GetProcessedMedia(c *gin.Context) {
	id, ok := requireParam(c, "media")
	if !ok {
		return
	}
	media, err := v1.NewProcessedMediaLogic(c, s.Core).Get(id)
	respond(c, media, err)
}

func (s *HttpSrv) SaveProcessedMedia(c *gin.Context) {
	var req types.ProcessedMedia
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	media, err := v1.NewProcessedMediaLogic(c, s.Core).Save(req)
	respond(c, media, err)
}

func (s *HttpSrv) DeleteProcessedMedia(c *gin.Context) {
	id, ok := requireParam(c, "media")
	if !ok {
		return
	}
	respond(c, nil, v1.NewProcessedMediaLogic(c, s.Core).Delete(id))
}

func (s *HttpSrv) ClearProcessedMedia(c *gin.Context) {
	respond(c, nil, v1.NewProcessedMediaLogic(c, s.Core).Clear())
}

func (s *HttpSrv) GetSessionFiles(c *gin.Context) {
	id, ok := requireParam(c, "session")
	if !ok {
		return
	}
	info, err := v1.NewSessionFilesLogic(c, s.Core).GetInfo(id)
	respond(c, info, err)
}

func (s *HttpSrv) AddSessionFile(c *gin.Context) {
	id, ok := requireParam(c, "session")
	if !ok {
		return
	}
	var req types.UploadedFile
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	respond(c, nil, v1.NewSessionFilesLogic(c, s.Core).AddFile(id, req))
}

type UpdateSessionFileRequest struct {
	Filename  *string   `json:"filename"`
	Content   *string   `json:"content"`
	Embedding []float64 `json:"embedding"`
	Processed *bool     `json:"processed"`
}

func (s *HttpSrv) UpdateSessionFile(c *gin.Context) {
	id, ok := requireParam(c, "session")
	if !ok {
		return
	}
	fileID, ok := requireParam(c, "file")
	if !ok {
		return
	}
	var req UpdateSessionFileRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	respond(c, nil, v1.NewSessionFilesLogic(c, s.Core).UpdateFile(id, fileID, types.UpdateUploadedFileArgs{
		Filename:  req.Filename,
		Content:   req.Content,
		Embedding: req.Embedding,
		Processed: req.Processed,
	}))
}

func (s *HttpSrv) RemoveSessionFile(c *gin.Context) {
	id, ok := requireParam(c, "session")
	if !ok {
		return
	}
	fileID, ok := requireParam(c, "file")
	if !ok {
		return
	}
	respond(c, nil, v1.NewSessionFilesLogic(c, s.Core).RemoveFile(id, fileID))
}

type SetRetrievalRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *HttpSrv) SetSessionRetrieval(c *gin.Context) {
	id, ok := requireParam(c, "session")
	if !ok {
		return
	}
	var req SetRetrievalRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	respond(c, nil, v1.NewSessionFilesLogic(c, s.Core).SetRetrievalEnabled(id, req.Enabled))
}

func (s *HttpSrv) ClearSessionFiles(c *gin.Context) {
	id, ok := requireParam(c, "session")
	if !ok {
		return
	}
	respond(c, nil, v1.NewSessionFilesLogic(c, s.Core).Clear(id))
}
