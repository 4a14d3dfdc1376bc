package domain

import "time"

// Listing 表示一条房源信息。
type Listing struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OwnerID     string    `json:"ownerId" gorm:"type:varchar(36);index;not null"`
	Title       string    `json:"title" gorm:"type:varchar(200);not null"`
	Description string    `json:"description" gorm:"type:text"`
	City        string    `json:"city" gorm:"type:varchar(100);index"`
	Address     string    `json:"address" gorm:"type:varchar(300)"`
	PriceCents  int64     `json:"priceCents" gorm:"not null"`
	Rooms       int       `json:"rooms"`
	AreaSqm     float64   `json:"areaSqm"`
	IsPublished bool      `json:"isPublished" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ListingImage 房源图片的元数据，图片内容存放在文件系统中。
type ListingImage struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ListingID   string    `json:"listingId" gorm:"type:varchar(36);index;not null"`
	Filename    string    `json:"filename" gorm:"type:varchar(255)"`
	ContentType string    `json:"contentType" gorm:"type:varchar(100)"`
	Size        int64     `json:"size"`
	StoragePath string    `json:"-" gorm:"type:varchar(500)"`
	CreatedAt   time.Time `json:"createdAt"`
	// 图片内容不存数据库，从文件系统加载
	Content []byte `json:"-" gorm:"-"`
}

// ListingFilter 房源浏览的筛选条件。
type ListingFilter struct {
	City          string
	OwnerID       string
	PublishedOnly bool
	Page          int
	PageSize      int
}
