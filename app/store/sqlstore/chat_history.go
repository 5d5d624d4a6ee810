package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/pageassist/localstore/pkg/register"
	"github.com/pageassist/localstore/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.ChatHistoryStore = NewChatHistoryStore(provider)
	})
}

type ChatHistoryStore struct {
	CommonFields
}

func NewChatHistoryStore(provider SqlProviderAchieve) *ChatHistoryStore {
	repo := &ChatHistoryStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_CHAT_HISTORY)
	repo.SetAllColumns("id", "title", "is_rag", "message_source", "is_pinned", "doc_id", "last_used_prompt", "model_id", "created_at")
	return repo
}

func (s *ChatHistoryStore) insert(data types.ChatHistory) sq.InsertBuilder {
	if data.CreatedAt == 0 {
		data.CreatedAt = types.NowMilli()
	}
	return sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.Title, data.IsRAG, data.MessageSource, data.IsPinned, data.DocID, data.LastUsedPrompt, data.ModelID, data.CreatedAt)
}

func (s *ChatHistoryStore) Create(ctx context.Context, data types.ChatHistory) error {
	return exec(ctx, &s.CommonFields, s.insert(data))
}

func (s *ChatHistoryStore) Put(ctx context.Context, data types.ChatHistory) error {
	return exec(ctx, &s.CommonFields, s.insert(data).Suffix(upsertSuffix("id", s.GetAllColumns()...)))
}

func (s *ChatHistoryStore) GetChatHistory(ctx context.Context, id string) (*types.ChatHistory, error) {
	return getOne[types.ChatHistory](ctx, &s.CommonFields, sq.Eq{"id": id})
}

func (s *ChatHistoryStore) ListChatHistories(ctx context.Context, opts types.ListChatHistoriesOptions, page, pageSize uint64) ([]*types.ChatHistory, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("created_at DESC", "id DESC")
	opts.Apply(&query)
	return selectList[types.ChatHistory](ctx, &s.CommonFields, paginate(query, page, pageSize))
}

func (s *ChatHistoryStore) ListChatHistoryIDs(ctx context.Context, opts types.ListChatHistoriesOptions) ([]string, error) {
	query := sq.Select("id").From(s.GetTable()).OrderBy("created_at DESC", "id DESC")
	opts.Apply(&query)

	queryString, args, err := s.ToSql(query)
	if err != nil {
		return nil, err
	}

	var res []string
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ChatHistoryStore) Total(ctx context.Context, opts types.ListChatHistoriesOptions) (uint64, error) {
	query := sq.Select("COUNT(*)").From(s.GetTable())
	opts.Apply(&query)
	return selectCount(ctx, &s.CommonFields, query)
}

func (s *ChatHistoryStore) Update(ctx context.Context, id string, args types.UpdateChatHistoryArgs) error {
	query := sq.Update(s.GetTable()).Where(sq.Eq{"id": id})
	changed := false
	if args.Title != nil {
		query = query.Set("title", *args.Title)
		changed = true
	}
	if args.IsPinned != nil {
		query = query.Set("is_pinned", *args.IsPinned)
		changed = true
	}
	if args.ModelID != nil {
		query = query.Set("model_id", *args.ModelID)
		changed = true
	}
	if args.LastUsedPrompt != nil {
		query = query.Set("last_used_prompt", *args.LastUsedPrompt)
		changed = true
	}
	if args.CreatedAt != nil {
		query = query.Set("created_at", *args.CreatedAt)
		changed = true
	}
	if !changed {
		return nil
	}
	return exec(ctx, &s.CommonFields, query)
}

func (s *ChatHistoryStore) Delete(ctx context.Context, id string) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()).Where(sq.Eq{"id": id}))
}

func (s *ChatHistoryStore) BatchDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()).Where(sq.Eq{"id": ids}))
}

func (s *ChatHistoryStore) Clear(ctx context.Context) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()))
}
