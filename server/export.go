package server

import (
	"crypto/subtle"
	"sync"

	"github.com/google/uuid"
	"github.com/lmxdawn/ethwallet/engine"
	"github.com/rs/zerolog/log"
)

// ExportGuard 导出私钥前的校验
// 私钥加密存储时要求 keystore 口令；未加密时要求启动时打印在终端上的一次性 token，用过即换
type ExportGuard struct {
	mu    sync.Mutex
	token string
}

// NewExportGuard token 为空时随机生成
func NewExportGuard(token string) *ExportGuard {
	g := &ExportGuard{token: token}
	if g.token == "" {
		g.rotate()
	}
	return g
}

// Token 当前有效的 token，只用于启动时打印
func (g *ExportGuard) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token
}

// Allow 校验通过后未加密模式下的 token 立即失效
func (g *ExportGuard) Allow(e *engine.Engine, secret string) bool {
	if secret == "" {
		return false
	}
	if e.Encrypted() {
		return e.CheckPassphrase(secret)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if subtle.ConstantTimeCompare([]byte(secret), []byte(g.token)) != 1 {
		return false
	}
	g.rotate()
	log.Warn().Str("token", g.token).Msg("export token used, new export token")
	return true
}

func (g *ExportGuard) rotate() {
	g.token = uuid.NewString()
}
