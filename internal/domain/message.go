package domain

import "time"

// MaxMessageBodyLength 站内信正文的最大长度（字符数）。
const MaxMessageBodyLength = 4000

// Message 表示一条用户间的站内信。
//
// 消息写入后除 IsRead 外不可变更；IsRead 只允许 false → true 的单向转换。
type Message struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SenderID    string    `json:"senderId" gorm:"type:varchar(36);index;not null"`
	RecipientID string    `json:"recipientId" gorm:"type:varchar(36);index;not null"`
	Body        string    `json:"body" gorm:"type:varchar(4000);not null"`
	IsRead      bool      `json:"isRead" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index"`
}

// CounterpartyOf 返回相对于 viewer 的对话另一方。
//
// 调用方需保证 viewer 是消息的参与者之一。
func (m *Message) CounterpartyOf(viewerID string) string {
	if m.SenderID == viewerID {
		return m.RecipientID
	}
	return m.SenderID
}

// AddressedTo 判断消息是否发给指定用户。
func (m *Message) AddressedTo(userID string) bool {
	return m.RecipientID == userID
}
