package v1

import (
	"strconv"

	"LovMapServer/apps/server/internal/middleware"
	"LovMapServer/apps/server/internal/service"
	"LovMapServer/consts"
	"LovMapServer/pkg/result"

	"github.com/gin-gonic/gin"
)

const (
	defaultNotifyPage     = 1
	defaultNotifyPageSize = 20
	maxNotifyPageSize     = 100
)

// NotificationHandler 通知历史处理器
type NotificationHandler struct {
	notificationService service.INotificationService
}

// NewNotificationHandler 创建通知历史处理器
func NewNotificationHandler(notificationService service.INotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// List 通知历史接口
// @Summary 分页拉取通知历史
// @Tags 通知接口
// @Produce json
// @Param page query int false "页码(默认1)"
// @Param pageSize query int false "每页数量(默认20)"
// @Success 200 {array} dto.NotificationResponse
// @Router /api/v1/notification/list [get]
func (h *NotificationHandler) List(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(defaultNotifyPage)))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(defaultNotifyPageSize)))
	if page < 1 {
		page = defaultNotifyPage
	}
	if pageSize < 1 || pageSize > maxNotifyPageSize {
		pageSize = defaultNotifyPageSize
	}

	items, total, err := h.notificationService.ListNotifications(ctx, userUUID, page, pageSize)
	if err != nil {
		respondError(c, ctx, "获取通知历史", err)
		return
	}

	result.Success(c, gin.H{
		"list":  items,
		"total": total,
	})
}

// MarkRead 标记已读接口
// @Summary 标记通知已读
// @Tags 通知接口
// @Produce json
// @Param id path string true "通知ID"
// @Success 200 {object} result.Response
// @Router /api/v1/notification/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(ctx, userUUID, id); err != nil {
		respondError(c, ctx, "标记通知已读", err)
		return
	}

	result.Success(c, nil)
}

// MarkAllRead 全部标记已读接口
// @Summary 标记全部通知已读
// @Tags 通知接口
// @Produce json
// @Success 200 {object} result.Response
// @Router /api/v1/notification/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	updated, err := h.notificationService.MarkAllRead(ctx, userUUID)
	if err != nil {
		respondError(c, ctx, "标记全部通知已读", err)
		return
	}

	result.Success(c, gin.H{"updated": updated})
}

// UnreadCount 未读数接口
// @Summary 查询未读通知数
// @Tags 通知接口
// @Produce json
// @Success 200 {object} result.Response
// @Router /api/v1/notification/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	count, err := h.notificationService.CountUnread(ctx, userUUID)
	if err != nil {
		respondError(c, ctx, "查询未读通知数", err)
		return
	}

	result.Success(c, gin.H{"count": count})
}

// Delete 删除单条通知接口
// @Summary 删除一条通知
// @Tags 通知接口
// @Produce json
// @Param id path string true "通知ID"
// @Success 200 {object} result.Response
// @Router /api/v1/notification/{id} [delete]
func (h *NotificationHandler) Delete(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.DeleteNotification(ctx, userUUID, id); err != nil {
		respondError(c, ctx, "删除通知", err)
		return
	}

	result.Success(c, nil)
}

// Clear 清空通知历史接口
// @Summary 清空通知历史
// @Tags 通知接口
// @Produce json
// @Success 200 {object} result.Response
// @Router /api/v1/notification [delete]
func (h *NotificationHandler) Clear(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	deleted, err := h.notificationService.ClearNotifications(ctx, userUUID)
	if err != nil {
		respondError(c, ctx, "清空通知历史", err)
		return
	}

	result.Success(c, gin.H{"deleted": deleted})
}
