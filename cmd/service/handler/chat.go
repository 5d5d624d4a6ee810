package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	v1 "github.com/pageassist/localstore/app/logic/v1"
	"github.com/pageassist/localstore/app/response"
	"github.com/pageassist/localstore/pkg/types"
	"github.com/pageassist/localstore/pkg/utils"
)

type CreateChatHistoryRequest struct {
	Title  string              `json:"title"`
	IsRAG  bool                `json:"is_rag"`
	Source types.MessageSource `json:"message_source"`
	DocID  string              `json:"doc_id"`
}

func (s *HttpSrv) CreateChatHistory(c *gin.Context) {
	var req CreateChatHistoryRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	history, err := v1.NewChatLogic(c, s.Core).SaveHistory(req.Title, req.IsRAG, req.Source, req.DocID)
	respond(c, history, err)
}

type ListChatHistoriesRequest struct {
	Source   types.MessageSource `form:"message_source"`
	Pinned   *bool               `form:"pinned"`
	Page     uint64              `form:"page"`
	PageSize uint64              `form:"pagesize"`
}

func (s *HttpSrv) ListChatHistories(c *gin.Context) {
	var req ListChatHistoriesRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	page, err := v1.NewChatLogic(c, s.Core).ListHistories(types.ListChatHistoriesOptions{
		MessageSource: req.Source,
		Pinned:        req.Pinned,
	}, req.Page, req.PageSize)
	respond(c, page, err)
}

func (s *HttpSrv) GetChatHistory(c *gin.Context) {
	id, ok := requireParam(c, "history")
	if !ok {
		return
	}
	history, err := v1.NewChatLogic(c, s.Core).GetHistory(id)
	respond(c, history, err)
}

type UpdateChatHistoryRequest struct {
	Title          *string               `json:"title"`
	Pinned         *bool                 `json:"is_pinned"`
	ModelID        *string               `json:"model_id"`
	LastUsedPrompt *types.LastUsedPrompt `json:"last_used_prompt"`
}

// UpdateChatHistory 只更新请求中出现的字段
func (s *HttpSrv) UpdateChatHistory(c *gin.Context) {
	id, ok := requireParam(c, "history")
	if !ok {
		return
	}
	var req UpdateChatHistoryRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	logic := v1.NewChatLogic(c, s.Core)
	var err error
	if req.Title != nil {
		err = logic.UpdateHistoryTitle(id, *req.Title)
	}
	if err == nil && req.Pinned != nil {
		err = logic.PinHistory(id, *req.Pinned)
	}
	if err == nil && req.ModelID != nil {
		err = logic.UpdateLastUsedModel(id, *req.ModelID)
	}
	if err == nil && req.LastUsedPrompt != nil {
		err = logic.UpdateLastUsedPrompt(id, *req.LastUsedPrompt)
	}
	if err != nil {
		response.APIError(c, err)
		return
	}

	history, err := logic.GetHistory(id)
	respond(c, history, err)
}

func (s *HttpSrv) TouchChatHistory(c *gin.Context) {
	id, ok := requireParam(c, "history")
	if !ok {
		return
	}
	respond(c, nil, v1.NewChatLogic(c, s.Core).TouchHistory(id))
}

func (s *HttpSrv) DeleteChatHistory(c *gin.Context) {
	id, ok := requireParam(c, "history")
	if !ok {
		return
	}
	respond(c, nil, v1.NewChatLogic(c, s.Core).DeleteHistory(id))
}

type DeleteChatHistoriesRequest struct {
	Range types.DeleteRange `form:"range"`
}

type DeleteChatHistoriesResponse struct {
	Deleted []string `json:"deleted"`
}

// DeleteChatHistories range 为空时删除全部会话
func (s *HttpSrv) DeleteChatHistories(c *gin.Context) {
	var req DeleteChatHistoriesRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	logic := v1.NewChatLogic(c, s.Core)
	if req.Range == "" {
		respond(c, nil, logic.DeleteAllHistories())
		return
	}

	ids, err := logic.DeleteHistoriesByRange(req.Range)
	respond(c, DeleteChatHistoriesResponse{Deleted: ids}, err)
}

type SearchChatRequest struct {
	Query string `form:"query" binding:"required"`
}

func (s *HttpSrv) SearchChat(c *gin.Context) {
	var req SearchChatRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	list, err := v1.NewChatLogic(c, s.Core).Search(req.Query)
	respond(c, list, err)
}

type GetRecentChatRequest struct {
	Source types.MessageSource `form:"message_source"`
}

func (s *HttpSrv) GetRecentChat(c *gin.Context) {
	var req GetRecentChatRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	bundle, err := v1.NewChatLogic(c, s.Core).GetRecentChat(req.Source)
	respond(c, bundle, err)
}

type BranchChatRequest struct {
	Index int `json:"index"`
}

func (s *HttpSrv) BranchChat(c *gin.Context) {
	id, ok := requireParam(c, "history")
	if !ok {
		return
	}
	var req BranchChatRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	bundle, err := v1.NewChatLogic(c, s.Core).Branch(id, req.Index)
	respond(c, bundle, err)
}

func (s *HttpSrv) GetChatMessages(c *gin.Context) {
	id, ok := requireParam(c, "history")
	if !ok {
		return
	}
	list, err := v1.NewChatLogic(c, s.Core).GetMessages(id)
	respond(c, list, err)
}

func (s *HttpSrv) GetLastChatMessage(c *gin.Context) {
	id, ok := requireParam(c, "history")
	if !ok {
		return
	}
	message, err := v1.NewChatLogic(c, s.Core).GetLastChatHistory(id)
	respond(c, message, err)
}

type SaveMessageRequest struct {
	Name               string            `json:"name"`
	Role               types.MessageRole `json:"role" binding:"required"`
	Content            string            `json:"content"`
	Images             []string          `json:"images"`
	Sources            types.RawJSON     `json:"sources"`
	Search             types.RawJSON     `json:"search"`
	Documents          types.RawJSON     `json:"documents"`
	MessageType        string            `json:"messageType"`
	GenerationInfo     types.RawJSON     `json:"generationInfo"`
	ReasoningTimeTaken int64             `json:"reasoning_time_taken"`
	TimeOffset         int64             `json:"time_offset"`
}

func (s *HttpSrv) SaveChatMessage(c *gin.Context) {
	id, ok := requireParam(c, "history")
	if !ok {
		return
	}
	var req SaveMessageRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	message, err := v1.NewChatLogic(c, s.Core).SaveMessage(types.SaveMessageArgs{
		HistoryID:          id,
		Name:               req.Name,
		Role:               req.Role,
		Content:            req.Content,
		Images:             req.Images,
		Sources:            req.Sources,
		Search:             req.Search,
		Documents:          req.Documents,
		MessageType:        req.MessageType,
		GenerationInfo:     req.GenerationInfo,
		ReasoningTimeTaken: req.ReasoningTimeTaken,
		TimeOffset:         req.TimeOffset,
	})
	respond(c, message, err)
}

type UpdateMessageRequest struct {
	Content string `json:"content"`
}

// UpdateChatMessage :message 为纯数字时按下标更新
func (s *HttpSrv) UpdateChatMessage(c *gin.Context) {
	id, ok := requireParam(c, "history")
	if !ok {
		return
	}
	messageID, ok := requireParam(c, "message")
	if !ok {
		return
	}
	var req UpdateMessageRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	logic := v1.NewChatLogic(c, s.Core)
	if index, err := strconv.Atoi(messageID); err == nil {
		respond(c, nil, logic.UpdateMessageByIndex(id, index, req.Content))
		return
	}
	respond(c, nil, logic.UpdateMessage(id, messageID, req.Content))
}

type TruncateMessagesRequest struct {
	Index int `form:"index"`
}

// TruncateChatMessages 编辑消息时删除下标之后的全部消息
func (s *HttpSrv) TruncateChatMessages(c *gin.Context) {
	id, ok := requireParam(c, "history")
	if !ok {
		return
	}
	var req TruncateMessagesRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	respond(c, nil, v1.NewChatLogic(c, s.Core).DeleteChatForEdit(id, req.Index))
}

func (s *HttpSrv) RemoveLatestChatMessage(c *gin.Context) {
	id, ok := requireParam(c, "history")
	if !ok {
		return
	}
	respond(c, nil, v1.NewChatLogic(c, s.Core).RemoveLatestMessage(id))
}
