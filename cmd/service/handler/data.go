package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	v1 "github.com/pageassist/localstore/app/logic/v1"
	"github.com/pageassist/localstore/app/response"
	"github.com/pageassist/localstore/pkg/types"
	"github.com/pageassist/localstore/pkg/utils"
)

type ExportRequest struct {
	// 逗号分隔, 为空时导出全部
	Kinds string `form:"kinds"`
}

func ParseKinds(raw string) []types.EntityKind {
	return lo.FilterMap(strings.Split(raw, ","), func(item string, _ int) (types.EntityKind, bool) {
		item = strings.TrimSpace(item)
		return types.EntityKind(item), item != ""
	})
}

func (s *HttpSrv) Export(c *gin.Context) {
	var req ExportRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	bundle, err := v1.NewImportLogic(c, s.Core).Export(ParseKinds(req.Kinds)...)
	respond(c, bundle, err)
}

func (s *HttpSrv) Import(c *gin.Context) {
	var req types.ImportEnvelope
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	res, err := v1.NewImportLogic(c, s.Core).Import(req)
	respond(c, res, err)
}

// ImportBundle 出错时同时返回已完成的部分
func (s *HttpSrv) ImportBundle(c *gin.Context) {
	var req types.ExportBundle
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	res, err := v1.NewImportLogic(c, s.Core).ImportBundle(req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, res)
}

func (s *HttpSrv) Migrate(c *gin.Context) {
	response.APISuccess(c, v1.NewMigrationLogic(c, s.Core).RunAll())
}

func (s *HttpSrv) VerifyMigration(c *gin.Context) {
	response.APISuccess(c, v1.NewMigrationLogic(c, s.Core).Verify(nil))
}

func (s *HttpSrv) Reconcile(c *gin.Context) {
	res, err := v1.NewReconcileLogic(c, s.Core).Run()
	respond(c, res, err)
}
