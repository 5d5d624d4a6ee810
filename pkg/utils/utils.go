package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/pageassist/localstore/pkg/errors"
	"github.com/pageassist/localstore/pkg/i18n"
)

// Random 返回 [min, max] 区间的随机整数
func Random(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.IntN(max-min+1)
}

// MD5 用于 vector 片段内容去重
func MD5(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// BindArgsWithGin 按请求方法与 content-type 绑定参数, 失败统一返回 400
func BindArgsWithGin(c *gin.Context, req any) error {
	if err := c.ShouldBindWith(req, binding.Default(c.Request.Method, c.ContentType())); err != nil {
		trace := fmt.Sprintf("Gin.ShouldBindWith.%s.%s", c.Request.Method, c.FullPath())
		return errors.New(trace, i18n.ERROR_INVALIDARGUMENT, err).WithKind(errors.KindInvalidArgument)
	}
	return nil
}

// CleanURL 去掉末尾的斜杠, 用于比较 openai base url
func CleanURL(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/")
}
