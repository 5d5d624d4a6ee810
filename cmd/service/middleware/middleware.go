package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageassist/localstore/app/core"
	"github.com/pageassist/localstore/app/response"
	"github.com/pageassist/localstore/pkg/i18n"
	"github.com/pageassist/localstore/pkg/safe"
)

func I18n() gin.HandlerFunc {
	l := i18n.NewLocalizer(i18n.LANGUAGES...)
	return response.ProvideResponseLocalizer(l)
}

// Metrics 记录接口耗时, 非 2xx 响应计入错误数
func Metrics(core *core.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		api := c.FullPath()
		if api == "" {
			api = "unknown"
		}
		timer := core.Metrics().ApiResponseTimer(api)
		c.Next()
		timer.ObserveDuration()

		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			core.Metrics().ApiErrorInc(c.Request.Method, api, status)
		}
	}
}

// Recovery handler 中的 panic 转换为 500 响应
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := safe.Do("http:"+c.FullPath(), func() error {
			c.Next()
			return nil
		})
		if err != nil && !c.Writer.Written() {
			response.APIError(c, err)
		}
	}
}

func Cors(c *gin.Context) {
	method := c.Request.Method
	origin := c.Request.Header.Get("Origin")
	if origin != "" {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
		c.Header("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Accept-Language")
		c.Header("Access-Control-Expose-Headers", "Content-Length, Access-Control-Allow-Origin, Access-Control-Allow-Headers, Cache-Control, Content-Language, Content-Type")
	}
	if method == "OPTIONS" {
		c.AbortWithStatus(http.StatusNoContent)
	}
	c.Next()
}
