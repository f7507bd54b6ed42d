package config

import (
	"fmt"
	"os"
	"time"
)

// MySQLConfig MySQL 连接配置。
// Replicas 非空时通过 dbresolver 做读写分离（写主库，读从库）。
type MySQLConfig struct {
	Host         string        `json:"host" yaml:"host"`
	Port         int           `json:"port" yaml:"port"`
	User         string        `json:"user" yaml:"user"`
	Password     string        `json:"password" yaml:"password"`
	Database     string        `json:"database" yaml:"database"`
	Replicas     []string      `json:"replicas" yaml:"replicas"` // 从库 DSN 列表
	MaxOpenConns int           `json:"maxOpenConns" yaml:"maxOpenConns"`
	MaxIdleConns int           `json:"maxIdleConns" yaml:"maxIdleConns"`
	MaxLifetime  time.Duration `json:"maxLifetime" yaml:"maxLifetime"`
}

// DSN 拼接主库 DSN。
func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// DefaultMySQLConfig 返回本地开发的默认配置，支持环境变量覆盖。
func DefaultMySQLConfig() MySQLConfig {
	cfg := MySQLConfig{
		Host:         "127.0.0.1",
		Port:         3306,
		User:         "root",
		Password:     "root",
		Database:     "lovmap",
		MaxOpenConns: 100,
		MaxIdleConns: 10,
		MaxLifetime:  time.Hour,
	}
	if host := os.Getenv("MYSQL_HOST"); host != "" {
		cfg.Host = host
	}
	if user := os.Getenv("MYSQL_USER"); user != "" {
		cfg.User = user
	}
	if pwd := os.Getenv("MYSQL_PASSWORD"); pwd != "" {
		cfg.Password = pwd
	}
	if db := os.Getenv("MYSQL_DATABASE"); db != "" {
		cfg.Database = db
	}
	return cfg
}
