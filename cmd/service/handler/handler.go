package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/pageassist/localstore/app/core"
	"github.com/pageassist/localstore/app/response"
	"github.com/pageassist/localstore/pkg/errors"
	"github.com/pageassist/localstore/pkg/i18n"
)

// HttpSrv HTTP服务结构
type HttpSrv struct {
	Core   *core.Core
	Engine *gin.Engine
}

// requireParam 路径参数为空时直接响应 400
func requireParam(c *gin.Context, key string) (string, bool) {
	v := c.Param(key)
	if v == "" {
		response.APIError(c, errors.New("api.Param."+key, i18n.ERROR_INVALIDARGUMENT, nil).WithKind(errors.KindInvalidArgument))
		return "", false
	}
	return v, true
}

// respond 统一处理 logic 的返回
func respond(c *gin.Context, data any, err error) {
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, data)
}
