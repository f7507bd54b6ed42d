package config

import (
	"os"
	"time"
)

// ServerConfig HTTP/WebSocket 服务配置。
type ServerConfig struct {
	Addr           string        `json:"addr" yaml:"addr"`
	RequestTimeout time.Duration `json:"requestTimeout" yaml:"requestTimeout"`

	// JWT 签发配置
	JWTSecret string        `json:"jwtSecret" yaml:"jwtSecret"`
	JWTExpire time.Duration `json:"jwtExpire" yaml:"jwtExpire"`

	// ReauthWindow 敏感操作（注销账号）要求 token 签发时间在该窗口内，
	// 超出则返回需要重新验证身份。
	ReauthWindow time.Duration `json:"reauthWindow" yaml:"reauthWindow"`
}

// DefaultServerConfig 返回本地开发的默认配置，支持环境变量覆盖。
func DefaultServerConfig() ServerConfig {
	cfg := ServerConfig{
		Addr:           ":8080",
		RequestTimeout: 10 * time.Second,
		JWTSecret:      "lovmap-dev-secret",
		JWTExpire:      7 * 24 * time.Hour,
		ReauthWindow:   5 * time.Minute,
	}
	if addr := os.Getenv("SERVER_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = secret
	}
	return cfg
}
