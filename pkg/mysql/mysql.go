package mysql

import (
	"LovMapServer/config"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

var global *gorm.DB

// DB 返回全局数据库实例（未初始化时为 nil）。
func DB() *gorm.DB { return global }

// ReplaceGlobal 设置全局数据库实例，进程启动时调用一次。
func ReplaceGlobal(db *gorm.DB) { global = db }

// Build 根据配置构建 gorm 实例。
// Replicas 非空时注册 dbresolver：写走主库，读走从库（轮询）。
func Build(cfg config.MySQLConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		// 驱动层错误（如唯一键冲突 1062）翻译成 gorm 哨兵错误，供仓储层统一映射
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if len(cfg.Replicas) > 0 {
		replicas := make([]gorm.Dialector, 0, len(cfg.Replicas))
		for _, dsn := range cfg.Replicas {
			replicas = append(replicas, mysql.Open(dsn))
		}
		err = db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RoundRobinPolicy(),
		}))
		if err != nil {
			return nil, err
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.MaxLifetime)

	return db, nil
}
