package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/pageassist/localstore/pkg/register"
	"github.com/pageassist/localstore/pkg/types"
	"github.com/pageassist/localstore/pkg/utils"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.VectorStore = NewVectorStore(provider)
	})
}

// 单条 insert 语句的最大行数, 避免超出 sqlite 参数上限
const appendBatchSize = 500

// VectorStore 每个片段一行, (vector_id, position) 保持写入顺序
type VectorStore struct {
	CommonFields
}

func NewVectorStore(provider SqlProviderAchieve) *VectorStore {
	repo := &VectorStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_VECTOR_FRAGMENT)
	repo.SetAllColumns("vector_id", "position", "file_id", "content", "content_hash", "embedding", "metadata")
	return repo
}

func (s *VectorStore) nextPosition(ctx context.Context, vectorID string) (int64, error) {
	queryString, args, err := s.ToSql(sq.Select("COALESCE(MAX(position), -1) + 1").From(s.GetTable()).Where(sq.Eq{"vector_id": vectorID}))
	if err != nil {
		return 0, err
	}

	var next int64
	if err = s.GetReplica(ctx).Get(&next, queryString, args...); err != nil {
		return 0, err
	}
	return next, nil
}

// Append 调用方需在事务内调用以保证 position 连续
func (s *VectorStore) Append(ctx context.Context, vectorID string, fragments []types.VectorFragment) error {
	if len(fragments) == 0 {
		return nil
	}

	next, err := s.nextPosition(ctx, vectorID)
	if err != nil {
		return err
	}

	for start := 0; start < len(fragments); start += appendBatchSize {
		end := min(start+appendBatchSize, len(fragments))
		query := sq.Insert(s.GetTable()).Columns(s.GetAllColumns()...)
		for i, v := range fragments[start:end] {
			hash := v.ContentHash
			if hash == "" {
				hash = utils.MD5(v.Content)
			}
			query = query.Values(vectorID, next+int64(start+i), v.FileID, v.Content, hash, v.Embedding, v.Metadata)
		}
		if err = exec(ctx, &s.CommonFields, query); err != nil {
			return err
		}
	}
	return nil
}

func (s *VectorStore) ListFragments(ctx context.Context, vectorID string) ([]types.VectorFragment, error) {
	queryString, args, err := s.ToSql(sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"vector_id": vectorID}).OrderBy("position ASC"))
	if err != nil {
		return nil, err
	}

	var res []types.VectorFragment
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *VectorStore) ListVectorIDs(ctx context.Context) ([]string, error) {
	queryString, args, err := s.ToSql(sq.Select("DISTINCT vector_id").From(s.GetTable()).OrderBy("vector_id ASC"))
	if err != nil {
		return nil, err
	}

	var res []string
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *VectorStore) Count(ctx context.Context, vectorID string) (uint64, error) {
	return selectCount(ctx, &s.CommonFields, sq.Select("COUNT(*)").From(s.GetTable()).Where(sq.Eq{"vector_id": vectorID}))
}

func (s *VectorStore) Delete(ctx context.Context, vectorID string) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()).Where(sq.Eq{"vector_id": vectorID}))
}

func (s *VectorStore) DeleteByFileID(ctx context.Context, vectorID, fileID string) (int64, error) {
	return execAffected(ctx, &s.CommonFields, sq.Delete(s.GetTable()).Where(sq.Eq{"vector_id": vectorID, "file_id": fileID}))
}

func (s *VectorStore) DeleteOrphans(ctx context.Context) (int64, error) {
	owners := "SELECT '" + types.VECTOR_ID_PREFIX + "' || id FROM " + types.TABLE_KNOWLEDGE.Name() +
		" UNION SELECT '" + types.VECTOR_ID_PREFIX + "' || id FROM " + types.TABLE_DOCUMENT.Name()
	query := sq.Delete(s.GetTable()).Where(sq.Expr("vector_id NOT IN (" + owners + ")"))
	return execAffected(ctx, &s.CommonFields, query)
}

func (s *VectorStore) Clear(ctx context.Context) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()))
}
