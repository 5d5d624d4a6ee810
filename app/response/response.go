package response

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pageassist/localstore/pkg/errors"
	"github.com/pageassist/localstore/pkg/i18n"
	"github.com/pageassist/localstore/pkg/utils"
)

func ProvideResponseLocalizer(l i18n.Localizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("i18n", l)
	}
}

func InjectResponseLocalizer(c *gin.Context) i18n.Localizer {
	return c.MustGet("i18n").(i18n.Localizer)
}

const (
	RequestIDKey = "request_id"
	ResponseKey  = "response_key"
)

type Response struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

// Meta 除 request_id 外由 APIError / APISuccess 填充
type Meta struct {
	Code      int    `json:"code"`
	Kind      string `json:"kind,omitempty"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// RequestLang 按 Accept-Language 选择语言, 无法匹配时使用默认语言
func RequestLang(c *gin.Context) string {
	if lang := InjectResponseLocalizer(c).Match(c.GetHeader("Accept-Language")); lang != "" {
		return lang
	}
	return i18n.DEFAULT_LANG
}

// APIError api响应失败, http status 由错误分类决定
func APIError(c *gin.Context, err error) {
	c.Abort()
	res := c.MustGet(ResponseKey).(*Response)
	res.Meta.Code = http.StatusInternalServerError
	res.Meta.Kind = errors.KindOf(err).String()
	res.Meta.Message = InjectResponseLocalizer(c).Error(RequestLang(c), err)

	var ce *errors.CustomizedError
	if errors.As(err, &ce) {
		res.Meta.Code = ce.GetCode()
		if data := ce.Data(); data != nil {
			res.Data = data
		}
	}

	c.JSON(res.Meta.Code, res)
	printErrorLog(c, res, err)
}

func printErrorLog(c *gin.Context, res *Response, err error) {
	slog.Error("response error",
		slog.String("request_id", res.Meta.RequestID),
		slog.String("request_uri", c.Request.URL.Path),
		slog.Int64("end_time", time.Now().Unix()),
		slog.Int("code", res.Meta.Code),
		slog.String("kind", res.Meta.Kind),
		slog.String("error", err.Error()))
}

func printSuccessLog(c *gin.Context, res *Response) {
	params := c.Request.URL.Query().Encode()
	slog.Debug("request success",
		slog.String("request_id", res.Meta.RequestID),
		slog.String("request_uri", c.Request.URL.Path),
		slog.String("method", c.Request.Method),
		slog.Int64("end_time", time.Now().Unix()),
		slog.String("params", params))
}

// APISuccess api响应成功
func APISuccess(c *gin.Context, response any) {
	c.Abort()
	res := c.MustGet(ResponseKey).(*Response)
	res.Meta.Code = http.StatusOK
	if response != nil {
		res.Data = response
	}
	c.JSON(http.StatusOK, res)
	printSuccessLog(c, res)
}

// NewResponse 为每个请求生成 request id 与响应骨架
func NewResponse() gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := &Response{
			Meta: Meta{
				RequestID: utils.GenUniqIDStr(),
			},
		}
		c.Set(RequestIDKey, resp.Meta.RequestID)
		c.Set(ResponseKey, resp)
	}
}
