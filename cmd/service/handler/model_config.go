package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	v1 "github.com/pageassist/localstore/app/logic/v1"
	"github.com/pageassist/localstore/app/response"
	"github.com/pageassist/localstore/pkg/types"
	"github.com/pageassist/localstore/pkg/utils"
)

func (s *HttpSrv) CreateOpenAIConfig(c *gin.Context) {
	var req v1.SaveOpenAIConfigRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	config, err := v1.NewOpenAIConfigLogic(c, s.Core).Create(req)
	respond(c, config, err)
}

func (s *HttpSrv) UpdateOpenAIConfig(c *gin.Context) {
	id, ok := requireParam(c, "config")
	if !ok {
		return
	}
	var req v1.SaveOpenAIConfigRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	config, err := v1.NewOpenAIConfigLogic(c, s.Core).Update(id, req)
	respond(c, config, err)
}

func (s *HttpSrv) GetOpenAIConfig(c *gin.Context) {
	id, ok := requireParam(c, "config")
	if !ok {
		return
	}
	config, err := v1.NewOpenAIConfigLogic(c, s.Core).Get(id)
	respond(c, config, err)
}

func (s *HttpSrv) ListOpenAIConfigs(c *gin.Context) {
	list, err := v1.NewOpenAIConfigLogic(c, s.Core).List()
	respond(c, list, err)
}

// DeleteOpenAIConfig 级联删除该服务商下的模型
func (s *HttpSrv) DeleteOpenAIConfig(c *gin.Context) {
	id, ok := requireParam(c, "config")
	if !ok {
		return
	}
	respond(c, nil, v1.NewOpenAIConfigLogic(c, s.Core).Delete(id))
}

type CreateModelRequest struct {
	ModelID    string          `json:"model_id" binding:"required"`
	Name       string          `json:"name"`
	ProviderID string          `json:"provider_id" binding:"required"`
	ModelType  types.ModelType `json:"model_type"`
}

func (r CreateModelRequest) args() types.CreateModelArgs {
	return types.CreateModelArgs{
		ModelID:    r.ModelID,
		Name:       r.Name,
		ProviderID: r.ProviderID,
		ModelType:  r.ModelType,
	}
}

func (s *HttpSrv) CreateModel(c *gin.Context) {
	var req CreateModelRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	model, err := v1.NewModelLogic(c, s.Core).Create(req.args())
	respond(c, model, err)
}

type CreateModelsRequest struct {
	Models []CreateModelRequest `json:"models" binding:"required,dive"`
}

// CreateModels 已存在的模型跳过, 只返回新建的部分
func (s *HttpSrv) CreateModels(c *gin.Context) {
	var req CreateModelsRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	list, err := v1.NewModelLogic(c, s.Core).CreateMany(lo.Map(req.Models, func(item CreateModelRequest, _ int) types.CreateModelArgs {
		return item.args()
	}))
	respond(c, list, err)
}

type ListModelsRequest struct {
	ProviderID string          `form:"provider_id"`
	ModelType  types.ModelType `form:"model_type"`
}

func (s *HttpSrv) ListModels(c *gin.Context) {
	var req ListModelsRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	list, err := v1.NewModelLogic(c, s.Core).List(types.ListModelsOptions{
		ProviderID: req.ProviderID,
		ModelType:  req.ModelType,
	})
	respond(c, list, err)
}

func (s *HttpSrv) GetModel(c *gin.Context) {
	id, ok := requireParam(c, "model")
	if !ok {
		return
	}
	model, err := v1.NewModelLogic(c, s.Core).Get(id)
	respond(c, model, err)
}

func (s *HttpSrv) DeleteModel(c *gin.Context) {
	id, ok := requireParam(c, "model")
	if !ok {
		return
	}
	respond(c, nil, v1.NewModelLogic(c, s.Core).Delete(id))
}

func (s *HttpSrv) ListModelNicknames(c *gin.Context) {
	list, err := v1.NewModelLogic(c, s.Core).ListNicknames()
	respond(c, list, err)
}

type SaveModelNicknameRequest struct {
	ModelName   string `json:"model_name" binding:"required"`
	ModelAvatar string `json:"model_avatar"`
}

func (s *HttpSrv) SaveModelNickname(c *gin.Context) {
	id, ok := requireParam(c, "model")
	if !ok {
		return
	}
	var req SaveModelNicknameRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	nickname, err := v1.NewModelLogic(c, s.Core).SaveNickname(id, req.ModelName, req.ModelAvatar)
	respond(c, nickname, err)
}

func (s *HttpSrv) DeleteModelNickname(c *gin.Context) {
	id, ok := requireParam(c, "model")
	if !ok {
		return
	}
	respond(c, nil, v1.NewModelLogic(c, s.Core).DeleteNickname(id))
}

type SetEnabledRequest struct {
	Enabled *bool `json:"enabled"`
}

type EnabledResponse struct {
	Enabled bool `json:"enabled"`
}

func (s *HttpSrv) ModelStates(c *gin.Context) {
	states, err := v1.NewModelLogic(c, s.Core).ModelStates()
	respond(c, states, err)
}

// SetModelEnabled enabled 缺省时切换当前状态
func (s *HttpSrv) SetModelEnabled(c *gin.Context) {
	id, ok := requireParam(c, "model")
	if !ok {
		return
	}
	var req SetEnabledRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	logic := v1.NewModelLogic(c, s.Core)
	if req.Enabled == nil {
		enabled, err := logic.ToggleModel(id)
		respond(c, EnabledResponse{Enabled: enabled}, err)
		return
	}
	respond(c, EnabledResponse{Enabled: *req.Enabled}, logic.SetModelEnabled(id, *req.Enabled))
}

func (s *HttpSrv) ProviderStates(c *gin.Context) {
	states, err := v1.NewModelLogic(c, s.Core).ProviderStates()
	respond(c, states, err)
}

func (s *HttpSrv) SetProviderEnabled(c *gin.Context) {
	id, ok := requireParam(c, "provider")
	if !ok {
		return
	}
	var req SetEnabledRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	logic := v1.NewModelLogic(c, s.Core)
	if req.Enabled == nil {
		enabled, err := logic.ToggleProvider(id)
		respond(c, EnabledResponse{Enabled: enabled}, err)
		return
	}
	respond(c, EnabledResponse{Enabled: *req.Enabled}, logic.SetProviderEnabled(id, *req.Enabled))
}
