package domain

// Thread 表示按对话另一方聚合出的会话视图。
//
// 会话不落库，每次请求基于消息全量重新计算。
type Thread struct {
	CounterpartyID string   `json:"counterpartyId"`
	LastMessage    *Message `json:"lastMessage"`
	Unread         int      `json:"unread"`
}

// ThreadView 在 Thread 基础上补充了对方的展示信息。
//
// 对方账号已注销时 CounterpartyMissing 置为 true，其余展示字段留空，
// 该行仍然保留在收件箱中。
type ThreadView struct {
	Thread
	CounterpartyName    string `json:"counterpartyName"`
	CounterpartyAddress string `json:"counterpartyAddress"`
	CounterpartyMissing bool   `json:"counterpartyMissing,omitempty"`
}

// InboxPage 收件箱分页结果。
type InboxPage struct {
	Items      []ThreadView `json:"items"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	Total      int          `json:"total"`
	TotalPages int          `json:"totalPages"`
}
