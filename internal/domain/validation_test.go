package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateMessageBody(t *testing.T) {
	t.Run("正常正文", func(t *testing.T) {
		assert.NoError(t, ValidateMessageBody("你好，房子还在吗？"))
	})

	t.Run("空正文", func(t *testing.T) {
		assert.Equal(t, ErrBodyEmpty, ValidateMessageBody(""))
		assert.Equal(t, ErrBodyEmpty, ValidateMessageBody("   \t\n"))
	})

	t.Run("长度按字符数而不是字节数计算", func(t *testing.T) {
		// 中文字符每个 3 字节，字节数超限但字符数没超
		body := strings.Repeat("好", MaxMessageBodyLength)
		assert.NoError(t, ValidateMessageBody(body))

		assert.Equal(t, ErrBodyTooLong, ValidateMessageBody(body+"好"))
	})
}

func TestValidateListing(t *testing.T) {
	t.Run("合法房源", func(t *testing.T) {
		assert.NoError(t, ValidateListing(&Listing{Title: "两室一厅", PriceCents: 500000}))
	})

	t.Run("标题为空", func(t *testing.T) {
		assert.Equal(t, ErrTitleEmpty, ValidateListing(&Listing{Title: " "}))
	})

	t.Run("价格为负", func(t *testing.T) {
		assert.Equal(t, ErrPriceNegative, ValidateListing(&Listing{Title: "房源", PriceCents: -100}))
	})

	t.Run("价格为零合法", func(t *testing.T) {
		assert.NoError(t, ValidateListing(&Listing{Title: "免费转租", PriceCents: 0}))
	})
}

func TestMessage_CounterpartyOf(t *testing.T) {
	msg := &Message{SenderID: "alice", RecipientID: "bob"}

	assert.Equal(t, "bob", msg.CounterpartyOf("alice"))
	assert.Equal(t, "alice", msg.CounterpartyOf("bob"))
}

func TestMessage_AddressedTo(t *testing.T) {
	msg := &Message{SenderID: "alice", RecipientID: "bob"}

	assert.True(t, msg.AddressedTo("bob"))
	assert.False(t, msg.AddressedTo("alice"))
}
