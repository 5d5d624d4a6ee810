package v1

import (
	"context"
	"strings"

	"github.com/pageassist/localstore/app/core"
	"github.com/pageassist/localstore/app/store"
	"github.com/pageassist/localstore/pkg/errors"
	"github.com/pageassist/localstore/pkg/types"
	"github.com/pageassist/localstore/pkg/utils"
)

type OpenAIConfigLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewOpenAIConfigLogic(ctx context.Context, core *core.Core) *OpenAIConfigLogic {
	return &OpenAIConfigLogic{
		ctx:  ctx,
		core: core,
	}
}

type SaveOpenAIConfigRequest struct {
	Name     string             `json:"name"`
	BaseURL  string             `json:"baseUrl"`
	APIKey   string             `json:"apiKey"`
	Provider string             `json:"provider,omitempty"`
	Headers  []types.HTTPHeader `json:"headers,omitempty"`
	FixCors  *bool              `json:"fix_cors,omitempty"`
}

func (l *OpenAIConfigLogic) Create(req SaveOpenAIConfigRequest) (*types.OpenAIModelConfig, error) {
	if strings.TrimSpace(req.BaseURL) == "" {
		return nil, invalidArgument("OpenAIConfigLogic.Create.BaseURL", nil)
	}
	config := types.OpenAIModelConfig{
		ID:        utils.GenOpenAIID(),
		Name:      req.Name,
		BaseURL:   utils.CleanURL(req.BaseURL),
		APIKey:    req.APIKey,
		Provider:  req.Provider,
		DBType:    types.DB_TYPE_OPENAI,
		FixCors:   req.FixCors != nil && *req.FixCors,
		Headers:   req.Headers,
		CreatedAt: types.NowMilli(),
	}
	if err := l.core.Store().OpenAIConfigStore().Create(l.ctx, config); err != nil {
		return nil, storeError("OpenAIConfigLogic.Create", err, true)
	}
	mirrorDo(l.ctx, l.core, "OpenAIConfigLogic.Create.Mirror", func(m store.Mirror) error {
		return m.PutOpenAIConfig(l.ctx, config)
	})
	return &config, nil
}

// Update headers 未传入时清空, fix_cors 未传入时保持原值
func (l *OpenAIConfigLogic) Update(id string, req SaveOpenAIConfigRequest) (*types.OpenAIModelConfig, error) {
	config, err := l.core.Store().OpenAIConfigStore().GetOpenAIConfig(l.ctx, id)
	if config, err = getOrNil("OpenAIConfigLogic.Update.Get", config, err); err != nil {
		return nil, err
	}
	if config == nil {
		return nil, notFoundError("OpenAIConfigLogic.Update.NotFound")
	}

	args := types.UpdateOpenAIConfigArgs{
		Name:    req.Name,
		BaseURL: utils.CleanURL(req.BaseURL),
		APIKey:  req.APIKey,
		Headers: req.Headers,
		FixCors: req.FixCors,
	}
	if err = l.core.Store().OpenAIConfigStore().Update(l.ctx, id, args); err != nil {
		return nil, storeError("OpenAIConfigLogic.Update", err, true)
	}

	config.Name = args.Name
	config.BaseURL = args.BaseURL
	config.APIKey = args.APIKey
	config.Headers = args.Headers
	if args.FixCors != nil {
		config.FixCors = *args.FixCors
	}
	mirrorDo(l.ctx, l.core, "OpenAIConfigLogic.Update.Mirror", func(m store.Mirror) error {
		return m.PutOpenAIConfig(l.ctx, *config)
	})
	return config, nil
}

func (l *OpenAIConfigLogic) Get(id string) (*types.OpenAIModelConfig, error) {
	config, err := l.core.Store().OpenAIConfigStore().GetOpenAIConfig(l.ctx, id)
	if err == nil || !errors.IsStorageUnavailable(err) {
		return getOrNil("OpenAIConfigLogic.Get", config, err)
	}

	list, err := fallbackList(l.core, "OpenAIConfigLogic.Get", nil, err, func(m store.Mirror) ([]*types.OpenAIModelConfig, error) {
		return m.ListOpenAIConfigs(l.ctx)
	})
	if err != nil {
		return nil, err
	}
	for _, v := range list {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, nil
}

func (l *OpenAIConfigLogic) List() ([]*types.OpenAIModelConfig, error) {
	list, err := l.core.Store().OpenAIConfigStore().ListOpenAIConfigs(l.ctx)
	list, err = fallbackList(l.core, "OpenAIConfigLogic.List", list, err, func(m store.Mirror) ([]*types.OpenAIModelConfig, error) {
		return m.ListOpenAIConfigs(l.ctx)
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*types.OpenAIModelConfig{}
	}
	return list, nil
}

// Delete 同一事务内删除该服务商下的自定义模型及其启用状态
func (l *OpenAIConfigLogic) Delete(id string) error {
	var modelIDs []string
	err := transaction(l.ctx, l.core, "OpenAIConfigLogic.Delete", func(ctx context.Context) error {
		if err := l.core.Store().OpenAIConfigStore().Delete(ctx, id); err != nil {
			return storeError("OpenAIConfigLogic.Delete", err, true)
		}

		var err error
		if modelIDs, err = l.core.Store().CustomModelStore().DeleteByProviderID(ctx, id); err != nil {
			return storeError("OpenAIConfigLogic.Delete.DeleteModels", err, true)
		}
		if len(modelIDs) == 0 {
			return nil
		}
		if err = l.core.Store().ModelStateStore().DeleteByModelIDs(ctx, modelIDs); err != nil {
			return storeError("OpenAIConfigLogic.Delete.DeleteModelStates", err, true)
		}
		return nil
	})
	if err != nil {
		return err
	}

	mirrorDo(l.ctx, l.core, "OpenAIConfigLogic.Delete.Mirror", func(m store.Mirror) error {
		if err := m.DeleteOpenAIConfig(l.ctx, id); err != nil {
			return err
		}
		models, err := m.ListModels(l.ctx)
		if err != nil {
			return err
		}
		for _, v := range models {
			if v.ProviderID != id {
				continue
			}
			if err = m.DeleteModel(l.ctx, v.ID); err != nil {
				return err
			}
		}
		return nil
	})
	return nil
}
