package v1

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/pageassist/localstore/app/core"
	"github.com/pageassist/localstore/app/store"
	"github.com/pageassist/localstore/pkg/errors"
	"github.com/pageassist/localstore/pkg/i18n"
	"github.com/pageassist/localstore/pkg/types"
	"github.com/pageassist/localstore/pkg/utils"
)

// ModelLogic 自定义模型, 以及模型昵称与模型/服务商启用状态
type ModelLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewModelLogic(ctx context.Context, core *core.Core) *ModelLogic {
	return &ModelLogic{
		ctx:  ctx,
		core: core,
	}
}

func (l *ModelLogic) newModel(args types.CreateModelArgs) types.Model {
	modelType := args.ModelType
	if modelType == "" {
		modelType = types.MODEL_TYPE_CHAT
	}
	return types.Model{
		ID:         fmt.Sprintf("%s_%s", args.ModelID, utils.GenModelID()),
		ModelID:    args.ModelID,
		Name:       types.DisplayModelName(args.Name),
		ProviderID: args.ProviderID,
		Lookup:     types.ModelLookup(args.ModelID, args.ProviderID),
		ModelType:  modelType,
		DBType:     types.DB_TYPE_OPENAI_MODEL,
	}
}

func (l *ModelLogic) lookupExists(lookup string) (bool, error) {
	model, err := l.core.Store().CustomModelStore().GetModelByLookup(l.ctx, lookup)
	if model, err = getOrNil("ModelLogic.GetModelByLookup", model, err); err != nil {
		return false, err
	}
	return model != nil, nil
}

// create 镜像写入失败时撤销主存储中的记录, 两边保持一致
func (l *ModelLogic) create(model types.Model) error {
	if err := l.core.Store().CustomModelStore().Create(l.ctx, model); err != nil {
		return storeError("ModelLogic.Create", err, true)
	}

	err := mirrorDo(l.ctx, l.core, "ModelLogic.Create.Mirror", func(m store.Mirror) error {
		return m.PutModel(l.ctx, model)
	})
	if err == nil {
		return nil
	}
	if derr := l.core.Store().CustomModelStore().Delete(l.ctx, model.ID); derr != nil {
		slog.Warn("failed to rollback model after mirror error", slog.String("model_id", model.ID), slog.String("error", derr.Error()))
	}
	return errors.Trace("ModelLogic.Create", err).WithKind(errors.KindWriteFailed)
}

// Create 同一服务商下重复注册同一个模型返回 ERROR_EXIST
func (l *ModelLogic) Create(args types.CreateModelArgs) (*types.Model, error) {
	if args.ModelID == "" || args.ProviderID == "" {
		return nil, invalidArgument("ModelLogic.Create.Args", fmt.Errorf("model_id and provider_id are required"))
	}
	model := l.newModel(args)
	exist, err := l.lookupExists(model.Lookup)
	if err != nil {
		return nil, err
	}
	if exist {
		return nil, errors.New("ModelLogic.Create.Exist", i18n.ERROR_EXIST, nil).WithKind(errors.KindInvalidArgument)
	}
	if err = l.create(model); err != nil {
		return nil, err
	}
	return &model, nil
}

// CreateMany 已注册过的模型直接跳过, 返回实际创建的模型
func (l *ModelLogic) CreateMany(list []types.CreateModelArgs) ([]*types.Model, error) {
	var res []*types.Model
	for _, args := range list {
		if args.ModelID == "" || args.ProviderID == "" {
			return res, invalidArgument("ModelLogic.CreateMany.Args", fmt.Errorf("model_id and provider_id are required"))
		}
		model := l.newModel(args)
		exist, err := l.lookupExists(model.Lookup)
		if err != nil {
			return res, err
		}
		if exist {
			continue
		}
		if err = l.create(model); err != nil {
			return res, err
		}
		res = append(res, &model)
	}
	return res, nil
}

func (l *ModelLogic) Get(id string) (*types.Model, error) {
	model, err := l.core.Store().CustomModelStore().GetModel(l.ctx, id)
	if err == nil || !errors.IsStorageUnavailable(err) {
		return getOrNil("ModelLogic.Get", model, err)
	}

	list, err := fallbackList(l.core, "ModelLogic.Get", nil, err, func(m store.Mirror) ([]*types.Model, error) {
		return m.ListModels(l.ctx)
	})
	if err != nil {
		return nil, err
	}
	model, _ = lo.Find(list, func(v *types.Model) bool { return v.ID == id })
	return model, nil
}

// List 附带昵称与头像, 没有昵称时展示 model_id
func (l *ModelLogic) List(opts types.ListModelsOptions) ([]*types.Model, error) {
	list, err := l.core.Store().CustomModelStore().ListModels(l.ctx, opts)
	if err != nil && errors.IsStorageUnavailable(err) {
		// 镜像中没有昵称, 直接返回
		return fallbackList(l.core, "ModelLogic.List", nil, err, func(m store.Mirror) ([]*types.Model, error) {
			all, err := m.ListModels(l.ctx)
			if err != nil {
				return nil, err
			}
			return lo.Filter(all, func(v *types.Model, _ int) bool {
				return (opts.ProviderID == "" || v.ProviderID == opts.ProviderID) &&
					(opts.ModelType == "" || v.ModelType == opts.ModelType)
			}), nil
		})
	}
	if err != nil {
		return nil, storeError("ModelLogic.List", err, false)
	}

	nicknames, err := l.nicknameMap()
	if err != nil {
		return nil, err
	}
	for _, v := range list {
		v.ModelName = v.ModelID
		if n, ok := nicknames[v.ID]; ok {
			if n.ModelName != "" {
				v.ModelName = n.ModelName
			}
			v.ModelImage = n.ModelAvatar
		}
	}
	if list == nil {
		list = []*types.Model{}
	}
	return list, nil
}

func (l *ModelLogic) Delete(id string) error {
	err := transaction(l.ctx, l.core, "ModelLogic.Delete", func(ctx context.Context) error {
		model, err := l.core.Store().CustomModelStore().GetModel(ctx, id)
		if model, err = getOrNil("ModelLogic.Delete.Get", model, err); err != nil {
			return err
		}
		if err = l.core.Store().CustomModelStore().Delete(ctx, id); err != nil {
			return storeError("ModelLogic.Delete", err, true)
		}
		if model == nil {
			return nil
		}
		if err = l.core.Store().ModelStateStore().DeleteByModelIDs(ctx, []string{model.ModelID}); err != nil {
			return storeError("ModelLogic.Delete.DeleteModelState", err, true)
		}
		return nil
	})
	if err != nil {
		return err
	}
	mirrorDo(l.ctx, l.core, "ModelLogic.Delete.Mirror", func(m store.Mirror) error {
		return m.DeleteModel(l.ctx, id)
	})
	return nil
}

func (l *ModelLogic) nicknameMap() (map[string]*types.ModelNickname, error) {
	list, err := l.core.Store().ModelNicknameStore().ListNicknames(l.ctx)
	if err != nil {
		return nil, storeError("ModelLogic.ListNicknames", err, false)
	}
	return lo.KeyBy(list, func(v *types.ModelNickname) string { return v.ModelID }), nil
}

func (l *ModelLogic) SaveNickname(modelID, modelName, modelAvatar string) (*types.ModelNickname, error) {
	if modelID == "" {
		return nil, invalidArgument("ModelLogic.SaveNickname.ModelID", nil)
	}
	data := types.ModelNickname{
		ID:          modelID,
		ModelID:     modelID,
		ModelName:   modelName,
		ModelAvatar: modelAvatar,
	}
	if err := l.core.Store().ModelNicknameStore().Put(l.ctx, data); err != nil {
		return nil, storeError("ModelLogic.SaveNickname", err, true)
	}
	return &data, nil
}

func (l *ModelLogic) GetNickname(modelID string) (*types.ModelNickname, error) {
	data, err := l.core.Store().ModelNicknameStore().GetNickname(l.ctx, modelID)
	return getOrNil("ModelLogic.GetNickname", data, err)
}

func (l *ModelLogic) ListNicknames() (map[string]*types.ModelNickname, error) {
	return l.nicknameMap()
}

func (l *ModelLogic) DeleteNickname(modelID string) error {
	if err := l.core.Store().ModelNicknameStore().Delete(l.ctx, modelID); err != nil {
		return storeError("ModelLogic.DeleteNickname", err, true)
	}
	return nil
}

// IsModelEnabled 未记录状态的模型视为启用
func (l *ModelLogic) IsModelEnabled(modelID string) (bool, error) {
	state, err := l.core.Store().ModelStateStore().GetModelState(l.ctx, modelID)
	if state, err = getOrNil("ModelLogic.IsModelEnabled", state, err); err != nil {
		return true, err
	}
	return state == nil || state.IsEnabled, nil
}

func (l *ModelLogic) SetModelEnabled(modelID string, enabled bool) error {
	if modelID == "" {
		return invalidArgument("ModelLogic.SetModelEnabled.ModelID", nil)
	}
	if err := l.core.Store().ModelStateStore().Put(l.ctx, types.ModelState{ID: modelID, ModelID: modelID, IsEnabled: enabled}); err != nil {
		return storeError("ModelLogic.SetModelEnabled", err, true)
	}
	return nil
}

func (l *ModelLogic) ToggleModel(modelID string) (bool, error) {
	enabled, err := l.IsModelEnabled(modelID)
	if err != nil {
		return false, err
	}
	if err = l.SetModelEnabled(modelID, !enabled); err != nil {
		return false, err
	}
	return !enabled, nil
}

func (l *ModelLogic) ModelStates() (map[string]bool, error) {
	list, err := l.core.Store().ModelStateStore().ListModelStates(l.ctx)
	if err != nil {
		return nil, storeError("ModelLogic.ModelStates", err, false)
	}
	return lo.SliceToMap(list, func(v *types.ModelState) (string, bool) { return v.ModelID, v.IsEnabled }), nil
}

func (l *ModelLogic) IsProviderEnabled(providerID string) (bool, error) {
	state, err := l.core.Store().ProviderStateStore().GetProviderState(l.ctx, providerID)
	if state, err = getOrNil("ModelLogic.IsProviderEnabled", state, err); err != nil {
		return true, err
	}
	return state == nil || state.IsEnabled, nil
}

func (l *ModelLogic) SetProviderEnabled(providerID string, enabled bool) error {
	if providerID == "" {
		return invalidArgument("ModelLogic.SetProviderEnabled.ProviderID", nil)
	}
	if err := l.core.Store().ProviderStateStore().Put(l.ctx, types.ProviderState{ID: providerID, ProviderID: providerID, IsEnabled: enabled}); err != nil {
		return storeError("ModelLogic.SetProviderEnabled", err, true)
	}
	return nil
}

func (l *ModelLogic) ToggleProvider(providerID string) (bool, error) {
	enabled, err := l.IsProviderEnabled(providerID)
	if err != nil {
		return false, err
	}
	if err = l.SetProviderEnabled(providerID, !enabled); err != nil {
		return false, err
	}
	return !enabled, nil
}

func (l *ModelLogic) ProviderStates() (map[string]bool, error) {
	list, err := l.core.Store().ProviderStateStore().ListProviderStates(l.ctx)
	if err != nil {
		return nil, storeError("ModelLogic.ProviderStates", err, false)
	}
	return lo.SliceToMap(list, func(v *types.ProviderState) (string, bool) { return v.ProviderID, v.IsEnabled }), nil
}
