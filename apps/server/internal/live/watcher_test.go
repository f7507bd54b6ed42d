package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"LovMapServer/apps/server/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// switchableLister 可切换返回值的好友集合回调
type switchableLister struct {
	mu      sync.Mutex
	friends []string
	err     error
}

func (l *switchableLister) list(_ context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	out := make([]string, len(l.friends))
	copy(out, l.friends)
	return out, nil
}

func (l *switchableLister) set(friends []string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.friends = friends
	l.err = err
}

func recvEvent(t *testing.T, ch <-chan dto.Event) dto.Event {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
		return dto.Event{}
	}
}

func TestLovWatcherStart(t *testing.T) {
	initLiveTestLogger()

	t.Run("subscribes_self_and_friend_snapshot", func(t *testing.T) {
		hub := NewHub()
		lister := &switchableLister{friends: []string{"user-b", "user-c", "user-b", ""}}
		w := NewLovWatcher(hub, "user-a", lister.list)
		defer w.Close()

		require.NoError(t, w.Start(context.Background()))

		// 自己始终第一，好友去重、空值剔除
		assert.Equal(t, []string{"user-a", "user-b", "user-c"}, w.Owners())
		assert.Equal(t, 1, hub.SubscriberCount(TopicLov("user-a")))
		assert.Equal(t, 1, hub.SubscriberCount(TopicLov("user-b")))
		assert.Equal(t, 1, hub.SubscriberCount(TopicFriends("user-a")))
	})

	t.Run("second_start_rejected", func(t *testing.T) {
		hub := NewHub()
		lister := &switchableLister{}
		w := NewLovWatcher(hub, "user-a", lister.list)
		defer w.Close()

		require.NoError(t, w.Start(context.Background()))
		assert.Error(t, w.Start(context.Background()))
	})

	t.Run("snapshot_failure_degrades_to_self_only", func(t *testing.T) {
		hub := NewHub()
		lister := &switchableLister{err: errors.New("db down")}
		w := NewLovWatcher(hub, "user-a", lister.list)
		defer w.Close()

		require.NoError(t, w.Start(context.Background()))
		assert.Equal(t, []string{"user-a"}, w.Owners())
		// 好友集合订阅仍然在位，之后的好友事件会触发重建
		assert.Equal(t, 1, hub.SubscriberCount(TopicFriends("user-a")))
	})
}

func TestLovWatcherForwarding(t *testing.T) {
	initLiveTestLogger()

	t.Run("friend_lov_events_merged_into_stream", func(t *testing.T) {
		hub := NewHub()
		lister := &switchableLister{friends: []string{"user-b"}}
		w := NewLovWatcher(hub, "user-a", lister.list)
		defer w.Close()
		require.NoError(t, w.Start(context.Background()))

		hub.Publish(context.Background(), TopicLov("user-b"), dto.Event{Type: dto.EventLovAdded})
		assert.Equal(t, dto.EventLovAdded, recvEvent(t, w.Events()).Type)

		hub.Publish(context.Background(), TopicLov("user-a"), dto.Event{Type: dto.EventLovUpdated})
		assert.Equal(t, dto.EventLovUpdated, recvEvent(t, w.Events()).Type)
	})

	t.Run("stranger_events_not_forwarded", func(t *testing.T) {
		hub := NewHub()
		lister := &switchableLister{friends: []string{"user-b"}}
		w := NewLovWatcher(hub, "user-a", lister.list)
		defer w.Close()
		require.NoError(t, w.Start(context.Background()))

		hub.Publish(context.Background(), TopicLov("user-x"), dto.Event{Type: dto.EventLovAdded})
		select {
		case event := <-w.Events():
			t.Fatalf("unexpected event: %v", event.Type)
		case <-time.After(50 * time.Millisecond):
		}
	})
}

func TestLovWatcherResubscribe(t *testing.T) {
	initLiveTestLogger()

	t.Run("friend_added_extends_subscriptions", func(t *testing.T) {
		hub := NewHub()
		lister := &switchableLister{friends: []string{"user-b"}}
		w := NewLovWatcher(hub, "user-a", lister.list)
		defer w.Close()
		require.NoError(t, w.Start(context.Background()))

		// 好友集合变化后，下一次快照包含新好友
		lister.set([]string{"user-b", "user-c"}, nil)
		hub.Publish(context.Background(), TopicFriends("user-a"), dto.Event{Type: dto.EventFriendshipAdded})

		// 好友事件本身转发给客户端
		assert.Equal(t, dto.EventFriendshipAdded, recvEvent(t, w.Events()).Type)

		assert.Eventually(t, func() bool {
			return hub.SubscriberCount(TopicLov("user-c")) == 1
		}, time.Second, 10*time.Millisecond)
		assert.Equal(t, []string{"user-a", "user-b", "user-c"}, w.Owners())

		// 新好友的事件从此可达
		hub.Publish(context.Background(), TopicLov("user-c"), dto.Event{Type: dto.EventLovAdded})
		assert.Equal(t, dto.EventLovAdded, recvEvent(t, w.Events()).Type)
	})

	t.Run("friend_removed_drops_subscription", func(t *testing.T) {
		hub := NewHub()
		lister := &switchableLister{friends: []string{"user-b"}}
		w := NewLovWatcher(hub, "user-a", lister.list)
		defer w.Close()
		require.NoError(t, w.Start(context.Background()))
		require.Equal(t, 1, hub.SubscriberCount(TopicLov("user-b")))

		lister.set(nil, nil)
		hub.Publish(context.Background(), TopicFriends("user-a"), dto.Event{Type: dto.EventFriendshipRemoved})
		recvEvent(t, w.Events())

		// 旧订阅被同步释放，前好友的事件不再可达
		assert.Eventually(t, func() bool {
			return hub.SubscriberCount(TopicLov("user-b")) == 0
		}, time.Second, 10*time.Millisecond)
		assert.Equal(t, []string{"user-a"}, w.Owners())
	})

	t.Run("refresh_failure_keeps_existing_subscriptions", func(t *testing.T) {
		hub := NewHub()
		lister := &switchableLister{friends: []string{"user-b"}}
		w := NewLovWatcher(hub, "user-a", lister.list)
		defer w.Close()
		require.NoError(t, w.Start(context.Background()))

		lister.set(nil, errors.New("db down"))
		hub.Publish(context.Background(), TopicFriends("user-a"), dto.Event{Type: dto.EventFriendshipAdded})
		recvEvent(t, w.Events())

		// 刷新失败保留现有订阅
		hub.Publish(context.Background(), TopicLov("user-b"), dto.Event{Type: dto.EventLovAdded})
		assert.Equal(t, dto.EventLovAdded, recvEvent(t, w.Events()).Type)
	})
}

func TestLovWatcherClose(t *testing.T) {
	initLiveTestLogger()

	t.Run("releases_all_subscriptions", func(t *testing.T) {
		hub := NewHub()
		lister := &switchableLister{friends: []string{"user-b"}}
		w := NewLovWatcher(hub, "user-a", lister.list)
		require.NoError(t, w.Start(context.Background()))

		w.Close()

		assert.Equal(t, 0, hub.SubscriberCount(TopicFriends("user-a")))
		assert.Equal(t, 0, hub.SubscriberCount(TopicLov("user-a")))
		assert.Equal(t, 0, hub.SubscriberCount(TopicLov("user-b")))

		// 出口流关闭
		assert.Eventually(t, func() bool {
			select {
			case _, open := <-w.Events():
				return !open
			default:
				return false
			}
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("idempotent", func(t *testing.T) {
		hub := NewHub()
		lister := &switchableLister{}
		w := NewLovWatcher(hub, "user-a", lister.list)
		require.NoError(t, w.Start(context.Background()))

		w.Close()
		w.Close()
	})

	t.Run("closed_watcher_rejects_start", func(t *testing.T) {
		hub := NewHub()
		lister := &switchableLister{}
		w := NewLovWatcher(hub, "user-a", lister.list)
		w.Close()
		assert.Error(t, w.Start(context.Background()))
		assert.Equal(t, 0, hub.SubscriberCount(TopicLov("user-a")))
	})
}
