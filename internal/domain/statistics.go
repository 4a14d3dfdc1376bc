package domain

import "time"

// SystemStatistics 平台运营统计信息
type SystemStatistics struct {
	TotalUsers        int              `json:"totalUsers"`
	ActiveUsers       int              `json:"activeUsers"`
	TotalListings     int              `json:"totalListings"`
	PublishedListings int              `json:"publishedListings"`
	TotalMessages     int              `json:"totalMessages"`
	UnreadMessages    int              `json:"unreadMessages"`
	MessagesToday     int              `json:"messagesToday"`
	UsersByRole       map[UserRole]int `json:"usersByRole"`
	GeneratedAt       time.Time        `json:"generatedAt"`
}
