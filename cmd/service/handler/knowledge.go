package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/pageassist/localstore/app/logic/v1"
	"github.com/pageassist/localstore/app/response"
	"github.com/pageassist/localstore/pkg/errors"
	"github.com/pageassist/localstore/pkg/i18n"
	"github.com/pageassist/localstore/pkg/types"
	"github.com/pageassist/localstore/pkg/utils"
)

// knowledgeLogic 路由前缀 /knowledge 与 /documents 共用同一组 handler
func (s *HttpSrv) knowledgeLogic(c *gin.Context) *v1.KnowledgeLogic {
	dbType := types.DB_TYPE_KNOWLEDGE
	if v, ok := c.Get(DBTypeKey); ok {
		dbType = v.(types.KnowledgeDBType)
	}
	return v1.NewKnowledgeLogic(c, s.Core, dbType)
}

const DBTypeKey = "knowledge_db_type"

func WithDBType(dbType types.KnowledgeDBType) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(DBTypeKey, dbType)
	}
}

type CreateKnowledgeRequest struct {
	Title          string                  `json:"title" binding:"required"`
	EmbeddingModel string                  `json:"embedding_model"`
	Source         []types.KnowledgeSource `json:"source"`
	Document       types.RawJSON           `json:"document"`
}

func (s *HttpSrv) CreateKnowledge(c *gin.Context) {
	var req CreateKnowledgeRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	knowledge, err := s.knowledgeLogic(c).Create(types.CreateKnowledgeArgs{
		Title:          req.Title,
		EmbeddingModel: req.EmbeddingModel,
		Source:         req.Source,
		Document:       req.Document,
	})
	respond(c, knowledge, err)
}

type ListKnowledgeRequest struct {
	Status types.KnowledgeStatus `form:"status"`
}

func (s *HttpSrv) ListKnowledge(c *gin.Context) {
	var req ListKnowledgeRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	list, err := s.knowledgeLogic(c).List(req.Status)
	respond(c, list, err)
}

func (s *HttpSrv) GetKnowledge(c *gin.Context) {
	id, ok := requireParam(c, "knowledge")
	if !ok {
		return
	}
	knowledge, err := s.knowledgeLogic(c).Get(id)
	if err == nil && knowledge == nil {
		err = errors.New("HttpSrv.GetKnowledge", i18n.ERROR_NOT_FOUND, nil).WithKind(errors.KindNotFound)
	}
	respond(c, knowledge, err)
}

type UpdateKnowledgeStatusRequest struct {
	Status types.KnowledgeStatus `json:"status" binding:"required"`
}

func (s *HttpSrv) UpdateKnowledgeStatus(c *gin.Context) {
	id, ok := requireParam(c, "knowledge")
	if !ok {
		return
	}
	var req UpdateKnowledgeStatusRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	knowledge, err := s.knowledgeLogic(c).UpdateStatus(id, req.Status)
	respond(c, knowledge, err)
}

type AddKnowledgeSourcesRequest struct {
	Source []types.KnowledgeSource `json:"source" binding:"required"`
}

func (s *HttpSrv) AddKnowledgeSources(c *gin.Context) {
	id, ok := requireParam(c, "knowledge")
	if !ok {
		return
	}
	var req AddKnowledgeSourcesRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	knowledge, err := s.knowledgeLogic(c).AddNewSources(id, req.Source)
	respond(c, knowledge, err)
}

func (s *HttpSrv) DeleteKnowledgeSource(c *gin.Context) {
	id, ok := requireParam(c, "knowledge")
	if !ok {
		return
	}
	sourceID, ok := requireParam(c, "source")
	if !ok {
		return
	}
	respond(c, nil, s.knowledgeLogic(c).DeleteSource(id, sourceID))
}

type UpdateKnowledgebaseRequest struct {
	Title          string `json:"title"`
	SystemPrompt   string `json:"systemPrompt"`
	FollowupPrompt string `json:"followupPrompt"`
}

func (s *HttpSrv) UpdateKnowledgebase(c *gin.Context) {
	id, ok := requireParam(c, "knowledge")
	if !ok {
		return
	}
	var req UpdateKnowledgebaseRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	knowledge, err := s.knowledgeLogic(c).UpdateKnowledgebase(id, types.UpdateKnowledgebaseArgs{
		Title:          req.Title,
		SystemPrompt:   req.SystemPrompt,
		FollowupPrompt: req.FollowupPrompt,
	})
	respond(c, knowledge, err)
}

// DeleteKnowledge 同时删除对应的向量集合
func (s *HttpSrv) DeleteKnowledge(c *gin.Context) {
	id, ok := requireParam(c, "knowledge")
	if !ok {
		return
	}
	respond(c, nil, s.knowledgeLogic(c).Delete(id))
}

func (s *HttpSrv) ListVectors(c *gin.Context) {
	list, err := v1.NewVectorLogic(c, s.Core).GetAll()
	respond(c, list, err)
}

func (s *HttpSrv) GetVectors(c *gin.Context) {
	id, ok := requireParam(c, "knowledge")
	if !ok {
		return
	}
	data, err := v1.NewVectorLogic(c, s.Core).Get(id)
	respond(c, data, err)
}

type InsertVectorsRequest struct {
	Vectors []types.VectorFragment `json:"vectors" binding:"required"`
}

func (s *HttpSrv) InsertVectors(c *gin.Context) {
	id, ok := requireParam(c, "knowledge")
	if !ok {
		return
	}
	var req InsertVectorsRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	respond(c, nil, v1.NewVectorLogic(c, s.Core).Insert(id, req.Vectors))
}

type DeleteVectorsRequest struct {
	FileID string `form:"file_id"`
}

type DeleteVectorsResponse struct {
	Deleted int64 `json:"deleted"`
}

// DeleteVectors 指定 file_id 时只删除该文件的片段
func (s *HttpSrv) DeleteVectors(c *gin.Context) {
	id, ok := requireParam(c, "knowledge")
	if !ok {
		return
	}
	var req DeleteVectorsRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	logic := v1.NewVectorLogic(c, s.Core)
	if req.FileID == "" {
		respond(c, nil, logic.Delete(id))
		return
	}
	n, err := logic.DeleteByFileID(id, req.FileID)
	respond(c, DeleteVectorsResponse{Deleted: n}, err)
}
