package repository

const (
	// luaInsertFriendEntryIfExists 好友缓存写入（仅在 key 存在且 field 不存在时写入）
	// KEYS[1]: 好友关系 Hash
	// ARGV[1]: field(对方 uuid)
	// ARGV[2]: value(json)
	// ARGV[3]: 过期时间（秒）
	// 返回: 1 表示执行成功，0 表示 key 不存在
	luaInsertFriendEntryIfExists = `
if redis.call('EXISTS', KEYS[1]) == 1 then
	redis.call('HDEL', KEYS[1], '__EMPTY__')
	redis.call('HSETNX', KEYS[1], ARGV[1], ARGV[2])
	redis.call('EXPIRE', KEYS[1], ARGV[3])
	return 1
end
return 0
`

	// luaUpsertFriendEntryIfExists 好友缓存写入（仅在 key 存在时覆盖更新）
	// KEYS[1]: 好友关系 Hash
	// ARGV[1]: field(对方 uuid)
	// ARGV[2]: value(json)
	// ARGV[3]: 过期时间（秒）
	// 返回: 1 表示写入成功，0 表示 key 不存在
	luaUpsertFriendEntryIfExists = `
if redis.call('EXISTS', KEYS[1]) == 1 then
	redis.call('HDEL', KEYS[1], '__EMPTY__')
	redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
	redis.call('EXPIRE', KEYS[1], ARGV[3])
	return 1
end
return 0
`

	// luaRemoveFriendEntryIfExists 好友缓存删除（仅在 key 存在时更新）
	// KEYS[1]: 好友关系 Hash
	// ARGV[1]: field(对方 uuid)
	// ARGV[2]: 空值占位 json
	// ARGV[3]: 过期时间（秒）
	// 返回: 1 表示执行成功，0 表示 key 不存在
	luaRemoveFriendEntryIfExists = `
if redis.call('EXISTS', KEYS[1]) == 1 then
	redis.call('HDEL', KEYS[1], ARGV[1])
	redis.call('HDEL', KEYS[1], '__EMPTY__')
	if redis.call('HLEN', KEYS[1]) == 0 then
		redis.call('HSET', KEYS[1], '__EMPTY__', ARGV[2])
	end
	redis.call('EXPIRE', KEYS[1], ARGV[3])
	return 1
end
return 0
`
)
