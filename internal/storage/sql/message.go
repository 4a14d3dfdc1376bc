package sql

import (
	"errors"

	"gorm.io/gorm"

	"renthub/backend/internal/domain"
	"renthub/backend/internal/storage"
)

// ========== Message Repository ==========

// SaveMessage 保存站内信。
func (s *Store) SaveMessage(message *domain.Message) error {
	return s.gorm.Create(message).Error
}

// GetMessage 获取单条站内信。
func (s *Store) GetMessage(id string) (*domain.Message, error) {
	var message domain.Message
	err := s.gorm.First(&message, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrMessageNotFound
		}
		return nil, err
	}
	return &message, nil
}

// ListMessagesBetween 返回两个用户之间的全部站内信，按创建时间升序。
func (s *Store) ListMessagesBetween(userA, userB string) ([]domain.Message, error) {
	messages := make([]domain.Message, 0)
	err := s.gorm.
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userA, userB, userB, userA).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// ListMessagesInvolving 返回某个用户收发的全部站内信，按创建时间降序。
func (s *Store) ListMessagesInvolving(userID string) ([]domain.Message, error) {
	messages := make([]domain.Message, 0)
	err := s.gorm.
		Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkMessageRead 将站内信标记为已读。重复标记不报错。
//
// MySQL 默认只报告被改变的行数（DSN 未开 clientFoundRows），
// 对已读消息再次执行 UPDATE 会得到 0 行。更新范围限定在未读行上，
// 0 行时再查一次，只有消息确实不存在才算错误。
func (s *Store) MarkMessageRead(id string) error {
	result := s.gorm.Model(&domain.Message{}).
		Where("id = ? AND is_read = ?", id, false).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := s.gorm.Model(&domain.Message{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return storage.ErrMessageNotFound
		}
	}
	return nil
}

// MarkConversationRead 批量标记某个发信人发来的未读站内信为已读，返回更新条数。
func (s *Store) MarkConversationRead(recipientID, senderID string) (int, error) {
	result := s.gorm.Model(&domain.Message{}).
		Where("recipient_id = ? AND sender_id = ? AND is_read = ?", recipientID, senderID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// CountUnreadMessages 统计某个收信人的未读站内信总数。
func (s *Store) CountUnreadMessages(recipientID string) (int, error) {
	var count int64
	err := s.gorm.Model(&domain.Message{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
