package domain

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	// ErrBodyEmpty 消息正文为空
	ErrBodyEmpty = errors.New("message body is empty")
	// ErrBodyTooLong 消息正文超长
	ErrBodyTooLong = errors.New("message body too long")
	// ErrTitleEmpty 房源标题为空
	ErrTitleEmpty = errors.New("listing title is empty")
	// ErrPriceNegative 房源价格为负
	ErrPriceNegative = errors.New("listing price is negative")
)

// ValidateMessageBody 校验站内信正文。
//
// 只去除首尾空白后判断非空；正文本身原样保存。
func ValidateMessageBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return ErrBodyEmpty
	}
	if utf8.RuneCountInString(body) > MaxMessageBodyLength {
		return ErrBodyTooLong
	}
	return nil
}

// ValidateListing 校验房源必填字段。
func ValidateListing(listing *Listing) error {
	if strings.TrimSpace(listing.Title) == "" {
		return ErrTitleEmpty
	}
	if listing.PriceCents < 0 {
		return ErrPriceNegative
	}
	return nil
}
