package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/pageassist/localstore/pkg/register"
	"github.com/pageassist/localstore/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.MessageStore = NewMessageStore(provider)
	})
}

type MessageStore struct {
	CommonFields
}

func NewMessageStore(provider SqlProviderAchieve) *MessageStore {
	repo := &MessageStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_MESSAGE)
	repo.SetAllColumns("id", "history_id", "name", "role", "content", "images", "sources", "search", "documents",
		"message_type", "generation_info", "model_name", "model_image", "reasoning_time_taken", "created_at")
	return repo
}

func (s *MessageStore) values(data types.Message) []interface{} {
	if data.CreatedAt == 0 {
		data.CreatedAt = types.NowMilli()
	}
	return []interface{}{data.ID, data.HistoryID, data.Name, data.Role, data.Content, data.Images, data.Sources, data.Search, data.Documents,
		data.MessageType, data.GenerationInfo, data.ModelName, data.ModelImage, data.ReasoningTimeTaken, data.CreatedAt}
}

func (s *MessageStore) Create(ctx context.Context, data types.Message) error {
	return exec(ctx, &s.CommonFields, sq.Insert(s.GetTable()).Columns(s.GetAllColumns()...).Values(s.values(data)...))
}

func (s *MessageStore) BatchCreate(ctx context.Context, datas []types.Message) error {
	if len(datas) == 0 {
		return nil
	}
	query := sq.Insert(s.GetTable()).Columns(s.GetAllColumns()...)
	for _, data := range datas {
		query = query.Values(s.values(data)...)
	}
	return exec(ctx, &s.CommonFields, query)
}

func (s *MessageStore) Put(ctx context.Context, data types.Message) error {
	query := sq.Insert(s.GetTable()).Columns(s.GetAllColumns()...).Values(s.values(data)...).
		Suffix(upsertSuffix("id", s.GetAllColumns()...))
	return exec(ctx, &s.CommonFields, query)
}

func (s *MessageStore) GetMessage(ctx context.Context, id string) (*types.Message, error) {
	return getOne[types.Message](ctx, &s.CommonFields, sq.Eq{"id": id})
}

func (s *MessageStore) ListMessages(ctx context.Context, opts types.ListMessagesOptions, page, pageSize uint64) ([]*types.Message, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("created_at ASC", "id ASC")
	opts.Apply(&query)
	return selectList[types.Message](ctx, &s.CommonFields, paginate(query, page, pageSize))
}

func (s *MessageStore) Total(ctx context.Context, opts types.ListMessagesOptions) (uint64, error) {
	query := sq.Select("COUNT(*)").From(s.GetTable())
	opts.Apply(&query)
	return selectCount(ctx, &s.CommonFields, query)
}

func (s *MessageStore) Update(ctx context.Context, id string, args types.UpdateMessageArgs) error {
	query := sq.Update(s.GetTable()).Where(sq.Eq{"id": id})
	changed := false
	if args.Content != nil {
		query = query.Set("content", *args.Content)
		changed = true
	}
	if args.Images != nil {
		query = query.Set("images", types.StringList(args.Images))
		changed = true
	}
	if args.Sources != nil {
		query = query.Set("sources", args.Sources)
		changed = true
	}
	if args.GenerationInfo != nil {
		query = query.Set("generation_info", args.GenerationInfo)
		changed = true
	}
	if !changed {
		return nil
	}
	return exec(ctx, &s.CommonFields, query)
}

func (s *MessageStore) Delete(ctx context.Context, id string) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()).Where(sq.Eq{"id": id}))
}

func (s *MessageStore) BatchDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()).Where(sq.Eq{"id": ids}))
}

func (s *MessageStore) DeleteByHistoryIDs(ctx context.Context, historyIDs []string) (int64, error) {
	if len(historyIDs) == 0 {
		return 0, nil
	}
	return execAffected(ctx, &s.CommonFields, sq.Delete(s.GetTable()).Where(sq.Eq{"history_id": historyIDs}))
}

func (s *MessageStore) DeleteOrphans(ctx context.Context) (int64, error) {
	query := sq.Delete(s.GetTable()).
		Where(sq.Expr("history_id NOT IN (SELECT id FROM " + types.TABLE_CHAT_HISTORY.Name() + ")"))
	return execAffected(ctx, &s.CommonFields, query)
}

func (s *MessageStore) Clear(ctx context.Context) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()))
}
