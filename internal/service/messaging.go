package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"renthub/backend/internal/domain"
	"renthub/backend/internal/pool"
	"renthub/backend/internal/storage"
)

var (
	// ErrRecipientUnknown 收信人不存在
	ErrRecipientUnknown = errors.New("recipient unknown")
	// ErrSelfMessage 不允许给自己发站内信
	ErrSelfMessage = errors.New("cannot message yourself")
	// ErrNotMessageRecipient 只有收信人才能标记已读
	ErrNotMessageRecipient = errors.New("not the message recipient")
	// ErrPageInvalid 分页参数非法
	ErrPageInvalid = errors.New("page parameters invalid")
)

// displayLookupConcurrency 收件箱展示信息查询的并发上限
const displayLookupConcurrency = 8

// BadgeCache 未读角标缓存接口，由 Redis 存储实现（可选）。
type BadgeCache interface {
	CacheUnreadCount(userID string, count int, ttl time.Duration) error
	GetCachedUnreadCount(userID string) (int, error)
	DeleteCachedUnreadCount(userID string) error
}

// MessagingService 封装站内信业务逻辑：发信、会话、收件箱聚合与已读管理。
type MessagingService struct {
	messages storage.MessageRepository
	users    storage.UserRepository

	// 未读角标缓存（可选），读走缓存、写后异步刷新
	badges BadgeCache
	tasks  *pool.WorkerPool
	logger *zap.Logger

	defaultPageSize int
	maxPageSize     int
}

// NewMessagingService 创建站内信业务服务。
func NewMessagingService(messages storage.MessageRepository, users storage.UserRepository, defaultPageSize, maxPageSize int, logger *zap.Logger) *MessagingService {
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessagingService{
		messages:        messages,
		users:           users,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		logger:          logger,
	}
}

// SetBadgeCache 设置未读角标缓存与后台刷新协程池。
func (s *MessagingService) SetBadgeCache(badges BadgeCache, tasks *pool.WorkerPool) {
	s.badges = badges
	s.tasks = tasks
}

// Send 发送一条站内信。
//
// 收信人必须是存在的用户，且不能是发信人自己。
// 新消息始终以未读状态落库。
func (s *MessagingService) Send(senderID, recipientID, body string) (*domain.Message, error) {
	if err := domain.ValidateMessageBody(body); err != nil {
		return nil, err
	}
	if senderID == recipientID {
		return nil, ErrSelfMessage
	}

	if _, err := s.users.GetUserByID(recipientID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrRecipientUnknown
		}
		return nil, err
	}

	message := &domain.Message{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
		IsRead:      false,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.messages.SaveMessage(message); err != nil {
		return nil, err
	}

	s.refreshBadgeAsync(recipientID)

	return message, nil
}

// Conversation 返回两个用户之间的完整会话，按时间升序。
//
// 打开会话即视为阅读：对方发来的未读消息会被批量标记为已读。
func (s *MessagingService) Conversation(viewerID, counterpartyID string) ([]domain.Message, error) {
	messages, err := s.messages.ListMessagesBetween(viewerID, counterpartyID)
	if err != nil {
		return nil, err
	}

	if _, err := s.MarkThreadRead(viewerID, counterpartyID); err != nil {
		return nil, err
	}

	// 返回的快照同步反映已读状态
	for i := range messages {
		if messages[i].RecipientID == viewerID {
			messages[i].IsRead = true
		}
	}

	return messages, nil
}

// Inbox 返回用户收件箱的一页会话列表。
//
// 每个对话方聚合为一个会话，按最近一条消息时间降序排列，
// 时间相同时按对话方 ID 升序保证排序稳定。
// 超出最后一页的页码返回空列表，而不是错误。
func (s *MessagingService) Inbox(ctx context.Context, viewerID string, page, pageSize int) (*domain.InboxPage, error) {
	if page < 1 {
		return nil, ErrPageInvalid
	}
	if pageSize < 1 {
		pageSize = s.defaultPageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}

	threads, err := s.buildThreads(viewerID)
	if err != nil {
		return nil, err
	}

	total := len(threads)
	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	pageThreads := threads[start:end]

	items, err := s.resolveDisplayInfo(ctx, pageThreads)
	if err != nil {
		return nil, err
	}

	return &domain.InboxPage{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// buildThreads 将用户收发的全部消息聚合成会话列表。
//
// 依赖 ListMessagesInvolving 的降序约定：每个对话方遇到的第一条
// 消息即为该会话的最近一条消息，单次遍历即可完成聚合。
func (s *MessagingService) buildThreads(viewerID string) ([]domain.Thread, error) {
	messages, err := s.messages.ListMessagesInvolving(viewerID)
	if err != nil {
		return nil, err
	}

	byCounterparty := make(map[string]*domain.Thread)
	order := make([]string, 0)

	for i := range messages {
		msg := messages[i]
		counterparty := msg.CounterpartyOf(viewerID)

		thread, ok := byCounterparty[counterparty]
		if !ok {
			last := msg
			thread = &domain.Thread{
				CounterpartyID: counterparty,
				LastMessage:    &last,
			}
			byCounterparty[counterparty] = thread
			order = append(order, counterparty)
		}

		if msg.AddressedTo(viewerID) && !msg.IsRead {
			thread.Unread++
		}
	}

	threads := make([]domain.Thread, 0, len(order))
	for _, id := range order {
		threads = append(threads, *byCounterparty[id])
	}

	// 遍历顺序已接近降序，这里统一排序并固定平局顺序
	sort.Slice(threads, func(i, j int) bool {
		ti := threads[i].LastMessage.CreatedAt
		tj := threads[j].LastMessage.CreatedAt
		if ti.Equal(tj) {
			return threads[i].CounterpartyID < threads[j].CounterpartyID
		}
		return ti.After(tj)
	})

	return threads, nil
}

// resolveDisplayInfo 并发补齐会话列表中对话方的展示信息。
//
// 对话方账号可能已注销，此时不丢弃会话，只标记 CounterpartyMissing。
func (s *MessagingService) resolveDisplayInfo(ctx context.Context, threads []domain.Thread) ([]domain.ThreadView, error) {
	views := make([]domain.ThreadView, len(threads))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(displayLookupConcurrency)

	for i := range threads {
		i := i
		views[i].Thread = threads[i]

		g.Go(func() error {
			// 请求取消后不再继续查询剩余对话方
			if err := ctx.Err(); err != nil {
				return err
			}
			user, err := s.users.GetUserByID(threads[i].CounterpartyID)
			if err != nil {
				if errors.Is(err, storage.ErrUserNotFound) {
					views[i].CounterpartyMissing = true
					return nil
				}
				return err
			}
			views[i].CounterpartyName = user.DisplayName()
			views[i].CounterpartyAddress = user.Email
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return views, nil
}

// MarkRead 将单条站内信标记为已读。
//
// 只有收信人可以标记；重复标记是幂等操作，不报错。
func (s *MessagingService) MarkRead(viewerID, messageID string) error {
	message, err := s.messages.GetMessage(messageID)
	if err != nil {
		return err
	}

	if message.RecipientID != viewerID {
		return ErrNotMessageRecipient
	}

	// 重复标记直接成功，不下发更新
	if message.IsRead {
		return nil
	}

	if err := s.messages.MarkMessageRead(messageID); err != nil {
		return err
	}

	s.refreshBadgeAsync(viewerID)

	return nil
}

// MarkThreadRead 将某个对话方发来的全部未读站内信标记为已读，返回更新条数。
func (s *MessagingService) MarkThreadRead(viewerID, counterpartyID string) (int, error) {
	count, err := s.messages.MarkConversationRead(viewerID, counterpartyID)
	if err != nil {
		return 0, err
	}

	if count > 0 {
		s.refreshBadgeAsync(viewerID)
	}

	return count, nil
}

// UnreadCount 返回用户的未读站内信总数。
//
// 优先读缓存；缓存未命中或不可用时回源统计并回填。
func (s *MessagingService) UnreadCount(viewerID string) (int, error) {
	if s.badges != nil {
		if count, err := s.badges.GetCachedUnreadCount(viewerID); err == nil {
			return count, nil
		}
	}

	count, err := s.messages.CountUnreadMessages(viewerID)
	if err != nil {
		return 0, err
	}

	if s.badges != nil {
		if err := s.badges.CacheUnreadCount(viewerID, count, badgeCacheTTL); err != nil {
			s.logger.Warn("未读角标缓存回填失败", zap.String("userID", viewerID), zap.Error(err))
		}
	}

	return count, nil
}

// badgeCacheTTL 未读角标缓存有效期
const badgeCacheTTL = 5 * time.Minute

// refreshBadgeAsync 在后台刷新用户的未读角标缓存。
//
// 刷新失败只影响缓存新鲜度，读取路径会回源，所以任务丢弃也是安全的。
func (s *MessagingService) refreshBadgeAsync(userID string) {
	if s.badges == nil || s.tasks == nil {
		return
	}

	submitted := s.tasks.TrySubmit(func() {
		count, err := s.messages.CountUnreadMessages(userID)
		if err != nil {
			s.logger.Warn("未读角标刷新失败", zap.String("userID", userID), zap.Error(err))
			return
		}
		if err := s.badges.CacheUnreadCount(userID, count, badgeCacheTTL); err != nil {
			s.logger.Warn("未读角标缓存写入失败", zap.String("userID", userID), zap.Error(err))
		}
	})
	if !submitted {
		// 队列已满时直接失效缓存，下次读取回源
		_ = s.badges.DeleteCachedUnreadCount(userID)
	}
}
