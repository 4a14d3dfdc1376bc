package httptransport

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"renthub/backend/internal/domain"
	"renthub/backend/internal/service"
	"renthub/backend/internal/storage"
)

type sendMessageRequest struct {
	RecipientID string `json:"recipientId" binding:"required"`
	Body        string `json:"body" binding:"required"`
}

type contactSupportRequest struct {
	Body string `json:"body" binding:"required"`
}

// sendMessage 发送一条站内信
// @Summary 发送站内信
// @Description 给指定用户发送一条站内信，新消息以未读状态写入
// @Tags 站内信
// @Accept json
// @Produce json
// @Param request body sendMessageRequest true "消息内容"
// @Success 201 {object} domain.Message "发送成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "收信人不存在"
// @Security BearerAuth
// @Router /v1/messages [post]
func (h *Handler) sendMessage(c *gin.Context) {
	viewerID := c.GetString("userID")

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	message, err := h.messaging.Send(viewerID, req.RecipientID, req.Body)
	if err != nil {
		switch err {
		case service.ErrRecipientUnknown:
			NotFound(c, GetErrorMessage(err))
		case service.ErrSelfMessage, domain.ErrBodyEmpty, domain.ErrBodyTooLong:
			BadRequest(c, GetErrorMessage(err))
		default:
			h.log.Error("failed to send message", zap.Error(err))
			InternalError(c, MsgMessageSendFailed)
		}
		return
	}

	Created(c, message)
}

// getConversation 获取与某个用户的完整会话
//
// 打开会话的同时会把对方发来的未读消息批量标记为已读。
// @Summary 获取会话
// @Tags 站内信
// @Produce json
// @Param counterpartyId path string true "对话方用户ID"
// @Security BearerAuth
// @Router /v1/threads/{counterpartyId} [get]
func (h *Handler) getConversation(c *gin.Context) {
	viewerID := c.GetString("userID")
	counterpartyID := c.Param("counterpartyId")

	messages, err := h.messaging.Conversation(viewerID, counterpartyID)
	if err != nil {
		h.log.Error("failed to load conversation",
			zap.String("viewer", viewerID),
			zap.String("counterparty", counterpartyID),
			zap.Error(err),
		)
		InternalError(c, MsgConversationFailed)
		return
	}

	Success(c, gin.H{
		"messages": messages,
		"total":    len(messages),
	})
}

// getInbox 获取收件箱会话列表
// @Summary 收件箱
// @Description 按对话方聚合的会话列表，最近消息在前，分页返回
// @Tags 站内信
// @Produce json
// @Param page query int false "页码（从1开始）"
// @Param pageSize query int false "每页条数"
// @Success 200 {object} domain.InboxPage "会话列表"
// @Failure 400 {object} Response "分页参数无效"
// @Security BearerAuth
// @Router /v1/inbox [get]
func (h *Handler) getInbox(c *gin.Context) {
	viewerID := c.GetString("userID")

	page := 1
	if raw := c.Query("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			BadRequest(c, MsgInvalidPage)
			return
		}
		page = parsed
	}

	pageSize := 0
	if raw := c.Query("pageSize"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			BadRequest(c, MsgInvalidPage)
			return
		}
		pageSize = parsed
	}

	inbox, err := h.messaging.Inbox(c.Request.Context(), viewerID, page, pageSize)
	if err != nil {
		switch err {
		case service.ErrPageInvalid:
			BadRequest(c, GetErrorMessage(err))
		default:
			h.log.Error("failed to build inbox", zap.String("viewer", viewerID), zap.Error(err))
			InternalError(c, MsgInboxFailed)
		}
		return
	}

	Success(c, inbox)
}

// markMessageRead 将单条站内信标记为已读
//
// 重复标记是幂等操作，返回成功。
// @Summary 标记消息已读
// @Tags 站内信
// @Param messageId path string true "消息ID"
// @Security BearerAuth
// @Router /v1/messages/{messageId}/read [post]
func (h *Handler) markMessageRead(c *gin.Context) {
	viewerID := c.GetString("userID")
	messageID := c.Param("messageId")

	if err := h.messaging.MarkRead(viewerID, messageID); err != nil {
		switch err {
		case storage.ErrMessageNotFound:
			NotFound(c, MsgMessageNotFound)
		case service.ErrNotMessageRecipient:
			Forbidden(c, GetErrorMessage(err))
		default:
			h.log.Error("failed to mark message read", zap.String("message", messageID), zap.Error(err))
			InternalError(c, MsgMessageMarkReadFailed)
		}
		return
	}

	Success(c, gin.H{"read": true})
}

// markThreadRead 将某个对话方发来的全部未读消息标记为已读
// @Summary 标记会话已读
// @Tags 站内信
// @Param counterpartyId path string true "对话方用户ID"
// @Security BearerAuth
// @Router /v1/threads/{counterpartyId}/read [post]
func (h *Handler) markThreadRead(c *gin.Context) {
	viewerID := c.GetString("userID")
	counterpartyID := c.Param("counterpartyId")

	count, err := h.messaging.MarkThreadRead(viewerID, counterpartyID)
	if err != nil {
		h.log.Error("failed to mark thread read",
			zap.String("viewer", viewerID),
			zap.String("counterparty", counterpartyID),
			zap.Error(err),
		)
		InternalError(c, MsgMessageMarkReadFailed)
		return
	}

	Success(c, gin.H{"updated": count})
}

// getUnreadCount 获取未读站内信总数（角标）
// @Summary 未读角标
// @Tags 站内信
// @Security BearerAuth
// @Router /v1/inbox/unread [get]
func (h *Handler) getUnreadCount(c *gin.Context) {
	viewerID := c.GetString("userID")

	count, err := h.messaging.UnreadCount(viewerID)
	if err != nil {
		h.log.Error("failed to count unread messages", zap.String("viewer", viewerID), zap.Error(err))
		InternalError(c, MsgUnreadCountFailed)
		return
	}

	Success(c, gin.H{"unread": count})
}

// getSupportStatus 查询"联系客服"入口是否开启
// @Summary 客服入口状态
// @Tags 客服
// @Router /v1/support [get]
func (h *Handler) getSupportStatus(c *gin.Context) {
	Success(c, gin.H{"enabled": h.support.Enabled()})
}

// contactSupport 给平台客服发送站内信
//
// 客服别名在启动时解析为真实用户，之后与普通站内信走同一条路径。
// @Summary 联系客服
// @Tags 客服
// @Security BearerAuth
// @Router /v1/support/messages [post]
func (h *Handler) contactSupport(c *gin.Context) {
	viewerID := c.GetString("userID")

	var req contactSupportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	message, err := h.messaging.ContactSupport(h.support, viewerID, req.Body)
	if err != nil {
		switch err {
		case service.ErrSupportDisabled:
			NotFound(c, GetErrorMessage(err))
		case domain.ErrBodyEmpty, domain.ErrBodyTooLong:
			BadRequest(c, GetErrorMessage(err))
		default:
			h.log.Error("failed to contact support", zap.String("viewer", viewerID), zap.Error(err))
			InternalError(c, MsgSupportSendFailed)
		}
		return
	}

	Created(c, message)
}
