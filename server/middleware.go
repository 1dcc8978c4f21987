package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lmxdawn/ethwallet/engine"
	"github.com/rs/zerolog/log"
)

const (
	engineKey      = "engine"
	exportGuardKey = "exportGuard"
)

// SessionRequired 没有钱包时拒绝请求
func SessionRequired() gin.HandlerFunc {

	return func(c *gin.Context) {
		e, ok := currentEngine(c)
		if !ok {
			APIResponse(c, ErrEngine, nil)
			c.Abort()
			return
		}
		if e.Wallet() == nil {
			APIResponse(c, ErrNoSession, nil)
			c.Abort()
			return
		}
		c.Next()
	}

}

// SetEngine 跨请求取值 方便在 handler 中使用
func SetEngine(e *engine.Engine) gin.HandlerFunc {

	return func(c *gin.Context) {
		c.Set(engineKey, e)
		c.Next()
	}
}

// SetExportGuard 导出私钥时使用的校验
func SetExportGuard(g *ExportGuard) gin.HandlerFunc {

	return func(c *gin.Context) {
		c.Set(exportGuardKey, g)
		c.Next()
	}
}

func currentExportGuard(c *gin.Context) *ExportGuard {
	v, ok := c.Get(exportGuardKey)
	if !ok {
		return nil
	}
	g, _ := v.(*ExportGuard)
	return g
}

func currentEngine(c *gin.Context) (*engine.Engine, bool) {
	v, ok := c.Get(engineKey)
	if !ok {
		return nil, false
	}
	e, ok := v.(*engine.Engine)
	return e, ok && e != nil
}

// Cors 只有配置中的 Origin 可以跨域访问
// 带有其它 Origin 的请求直接拒绝，否则网页可以用简单请求绕过预检发起转账
func Cors(allowOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowOrigins))
	for _, origin := range allowOrigins {
		allowed[strings.TrimRight(origin, "/")] = true
	}
	return func(c *gin.Context) {
		method := c.Request.Method
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			if !allowed[origin] {
				log.Warn().Str("origin", origin).Str("path", c.Request.URL.Path).Msg("cross origin request refused")
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE")
			c.Header("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept")
			c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Type")
		}
		if method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
