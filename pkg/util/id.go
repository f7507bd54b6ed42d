package util

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	idNode     *snowflake.Node
	idNodeOnce sync.Once
)

// NextID 生成全局唯一的雪花 ID。
// 节点号固定为 1，多实例部署时应从配置注入。
func NextID() int64 {
	idNodeOnce.Do(func() {
		node, err := snowflake.NewNode(1)
		if err != nil {
			panic(err)
		}
		idNode = node
	})
	return idNode.Generate().Int64()
}
