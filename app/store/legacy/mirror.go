package legacy

import (
	"context"

	"github.com/samber/lo"

	"github.com/pageassist/localstore/app/store"
	"github.com/pageassist/localstore/pkg/types"
)

var _ store.Mirror = (*Store)(nil)

// PutPrompt 按 id 覆盖, 新提示词放在数组最前
func (s *Store) PutPrompt(ctx context.Context, data types.Prompt) error {
	list, err := s.Prompts(ctx)
	if err != nil {
		return err
	}
	for i, v := range list {
		if v.ID == data.ID {
			list[i] = data
			return s.SetPrompts(ctx, list)
		}
	}
	return s.SetPrompts(ctx, append([]types.Prompt{data}, list...))
}

func (s *Store) DeletePrompt(ctx context.Context, id string) error {
	list, err := s.Prompts(ctx)
	if err != nil {
		return err
	}
	return s.SetPrompts(ctx, lo.Filter(list, func(v types.Prompt, _ int) bool {
		return v.ID != id
	}))
}

func (s *Store) ListPrompts(ctx context.Context) ([]*types.Prompt, error) {
	list, err := s.Prompts(ctx)
	if err != nil {
		return nil, err
	}
	return lo.ToSlicePtr(list), nil
}

func (s *Store) PutOpenAIConfig(ctx context.Context, data types.OpenAIModelConfig) error {
	data.DBType = types.DB_TYPE_OPENAI
	return s.setJSON(ctx, map[string]any{data.ID: data})
}

func (s *Store) DeleteOpenAIConfig(ctx context.Context, id string) error {
	return s.kv.Remove(ctx, id)
}

func (s *Store) ListOpenAIConfigs(ctx context.Context) ([]*types.OpenAIModelConfig, error) {
	list, err := s.OpenAIConfigs(ctx)
	if err != nil {
		return nil, err
	}
	return lo.ToSlicePtr(list), nil
}

func (s *Store) PutModel(ctx context.Context, data types.Model) error {
	data.DBType = types.DB_TYPE_OPENAI_MODEL
	return s.setJSON(ctx, map[string]any{data.ID: data})
}

func (s *Store) DeleteModel(ctx context.Context, id string) error {
	return s.kv.Remove(ctx, id)
}

func (s *Store) ListModels(ctx context.Context) ([]*types.Model, error) {
	list, err := s.Models(ctx)
	if err != nil {
		return nil, err
	}
	return lo.ToSlicePtr(list), nil
}
