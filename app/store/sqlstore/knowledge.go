package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/pageassist/localstore/pkg/register"
	"github.com/pageassist/localstore/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.KnowledgeStore = NewKnowledgeStore(provider, types.DB_TYPE_KNOWLEDGE)
		provider.stores.DocumentStore = NewKnowledgeStore(provider, types.DB_TYPE_DOCUMENT)
	})
}

// KnowledgeStore knowledge 与 document 结构一致, 表名由 db_type 决定
type KnowledgeStore struct {
	CommonFields
	dbType types.KnowledgeDBType
}

func NewKnowledgeStore(provider SqlProviderAchieve, dbType types.KnowledgeDBType) *KnowledgeStore {
	store := &KnowledgeStore{dbType: dbType}
	store.SetProvider(provider)
	store.SetTable(dbType.Table())
	store.SetAllColumns("id", "db_type", "title", "status", "embedding_model", "source", "document", "system_prompt", "followup_prompt", "version", "created_at")
	return store
}

func (s *KnowledgeStore) insert(data types.Knowledge) sq.InsertBuilder {
	if data.CreatedAt == 0 {
		data.CreatedAt = types.NowMilli()
	}
	if data.Status == "" {
		data.Status = types.KNOWLEDGE_STATUS_PENDING
	}
	return sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, s.dbType, data.Title, data.Status, data.EmbeddingModel, data.Source, data.Document, data.SystemPrompt, data.FollowupPrompt, 0, data.CreatedAt)
}

func (s *KnowledgeStore) Create(ctx context.Context, data types.Knowledge) error {
	return exec(ctx, &s.CommonFields, s.insert(data))
}

// Put 覆盖写入, 已存在时 version 递增以使并发的条件更新失效
func (s *KnowledgeStore) Put(ctx context.Context, data types.Knowledge) error {
	var columns []string
	for _, v := range s.GetAllColumns() {
		if v != "version" {
			columns = append(columns, v)
		}
	}
	suffix := upsertSuffix("id", columns...) + ", version = " + s.GetTable() + ".version + 1"
	return exec(ctx, &s.CommonFields, s.insert(data).Suffix(suffix))
}

func (s *KnowledgeStore) GetKnowledge(ctx context.Context, id string) (*types.Knowledge, error) {
	return getOne[types.Knowledge](ctx, &s.CommonFields, sq.Eq{"id": id})
}

func (s *KnowledgeStore) ListKnowledges(ctx context.Context, opts types.ListKnowledgeOptions, page, pageSize uint64) ([]*types.Knowledge, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("created_at DESC", "id DESC")
	opts.Apply(&query)
	return selectList[types.Knowledge](ctx, &s.CommonFields, paginate(query, page, pageSize))
}

func (s *KnowledgeStore) ListKnowledgeIDs(ctx context.Context) ([]string, error) {
	queryString, args, err := s.ToSql(sq.Select("id").From(s.GetTable()).OrderBy("created_at DESC", "id DESC"))
	if err != nil {
		return nil, err
	}

	var res []string
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *KnowledgeStore) Total(ctx context.Context, opts types.ListKnowledgeOptions) (uint64, error) {
	query := sq.Select("COUNT(*)").From(s.GetTable())
	opts.Apply(&query)
	return selectCount(ctx, &s.CommonFields, query)
}

func (s *KnowledgeStore) UpdateWithVersion(ctx context.Context, id string, version int64, status types.KnowledgeStatus, source types.KnowledgeSources) (bool, error) {
	query := sq.Update(s.GetTable()).
		Set("status", status).
		Set("source", source).
		Set("version", sq.Expr("version + 1")).
		Where(sq.Eq{"id": id, "version": version})

	affected, err := execAffected(ctx, &s.CommonFields, query)
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (s *KnowledgeStore) UpdateKnowledgebase(ctx context.Context, id string, args types.UpdateKnowledgebaseArgs) error {
	query := sq.Update(s.GetTable()).
		Set("title", args.Title).
		Set("system_prompt", args.SystemPrompt).
		Set("followup_prompt", args.FollowupPrompt).
		Set("version", sq.Expr("version + 1")).
		Where(sq.Eq{"id": id})
	return exec(ctx, &s.CommonFields, query)
}

func (s *KnowledgeStore) Delete(ctx context.Context, id string) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()).Where(sq.Eq{"id": id}))
}

func (s *KnowledgeStore) Clear(ctx context.Context) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()))
}
