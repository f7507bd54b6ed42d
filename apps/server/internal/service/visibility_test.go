package service

import (
	"testing"

	"LovMapServer/model"

	"github.com/stretchr/testify/assert"
)

func TestAuthorizedUUIDs(t *testing.T) {
	t.Run("viewer_always_first", func(t *testing.T) {
		got := AuthorizedUUIDs("user-a", nil)
		assert.Equal(t, []string{"user-a"}, got)
	})

	t.Run("both_directions_deduplicated", func(t *testing.T) {
		friendships := []*model.Friendship{
			{UserUuid: "user-a", FriendUuid: "user-b"},
			{UserUuid: "user-c", FriendUuid: "user-a"},
			// 重复的边不会产生重复项
			{UserUuid: "user-a", FriendUuid: "user-b"},
			// 与 viewer 无关的边被忽略
			{UserUuid: "user-x", FriendUuid: "user-y"},
		}
		got := AuthorizedUUIDs("user-a", friendships)
		assert.Equal(t, []string{"user-a", "user-b", "user-c"}, got)
	})
}

func TestIsFriendOrSelf(t *testing.T) {
	friendships := []*model.Friendship{
		{UserUuid: "user-a", FriendUuid: "user-b"},
		{UserUuid: "user-c", FriendUuid: "user-a"},
	}

	assert.True(t, IsFriendOrSelf("user-a", "user-a", nil))
	assert.True(t, IsFriendOrSelf("user-a", "user-b", friendships))
	assert.True(t, IsFriendOrSelf("user-a", "user-c", friendships))
	assert.False(t, IsFriendOrSelf("user-a", "user-x", friendships))
	assert.False(t, IsFriendOrSelf("user-b", "user-c", friendships))
}
