package v1

import (
	"context"
	"log/slog"

	"github.com/pageassist/localstore/app/core"
	"github.com/pageassist/localstore/pkg/types"
)

// ReconcileLogic 清理父记录已不存在的孤儿数据
type ReconcileLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewReconcileLogic(ctx context.Context, core *core.Core) *ReconcileLogic {
	return &ReconcileLogic{
		ctx:  ctx,
		core: core,
	}
}

func (l *ReconcileLogic) Run() (*types.ReconcileResult, error) {
	defer l.core.Metrics().OperationTimer("reconcile").ObserveDuration()

	res := &types.ReconcileResult{}
	err := transaction(l.ctx, l.core, "ReconcileLogic.Run", func(ctx context.Context) error {
		s := l.core.Store()
		n, err := s.MessageStore().DeleteOrphans(ctx)
		if err != nil {
			return storeError("ReconcileLogic.Run.Messages", err, true)
		}
		res.OrphanMessages = int(n)

		if n, err = s.SessionFilesStore().DeleteOrphans(ctx); err != nil {
			return storeError("ReconcileLogic.Run.SessionFiles", err, true)
		}
		res.OrphanSessionFiles = int(n)

		if n, err = s.VectorStore().DeleteOrphans(ctx); err != nil {
			return storeError("ReconcileLogic.Run.Vectors", err, true)
		}
		res.OrphanVectors = int(n)

		modelIDs, err := s.CustomModelStore().DeleteOrphans(ctx)
		if err != nil {
			return storeError("ReconcileLogic.Run.Models", err, true)
		}
		res.OrphanModels = len(modelIDs)
		if len(modelIDs) > 0 {
			if err = s.ModelStateStore().DeleteByModelIDs(ctx, modelIDs); err != nil {
				return storeError("ReconcileLogic.Run.ModelStates", err, true)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.core.Metrics().ReconcileAdd(*res)
	if *res != (types.ReconcileResult{}) {
		slog.Info("reconcile removed orphan records",
			slog.Int("messages", res.OrphanMessages),
			slog.Int("session_files", res.OrphanSessionFiles),
			slog.Int("vectors", res.OrphanVectors),
			slog.Int("models", res.OrphanModels))
	}
	return res, nil
}
