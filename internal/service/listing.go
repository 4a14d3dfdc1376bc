package service

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"renthub/backend/internal/domain"
	"renthub/backend/internal/storage"
)

var (
	// ErrNotListingOwner 只有房源发布者才能修改房源
	ErrNotListingOwner = errors.New("not the listing owner")
	// ErrImageTooLarge 图片超过大小上限
	ErrImageTooLarge = errors.New("image too large")
)

// ImageStore 房源图片的文件系统存储接口。
type ImageStore interface {
	SaveImage(listingID, imageID string, content []byte) (string, error)
	GetImage(listingID, imageID string) ([]byte, error)
	DeleteImage(listingID, imageID string) error
	DeleteListingImages(listingID string) error
}

// ListingService 封装房源相关业务操作。
type ListingService struct {
	repo         storage.ListingRepository
	images       ImageStore // 图片内容存储（可选）
	maxImageSize int64
}

// NewListingService 创建房源业务服务。
func NewListingService(repo storage.ListingRepository, maxImageSize int64) *ListingService {
	if maxImageSize <= 0 {
		maxImageSize = 5 * 1024 * 1024
	}
	return &ListingService{repo: repo, maxImageSize: maxImageSize}
}

// SetImageStore 设置图片文件系统存储。
func (s *ListingService) SetImageStore(images ImageStore) {
	s.images = images
}

// CreateListingInput 定义创建房源的输入。
type CreateListingInput struct {
	OwnerID     string
	Title       string
	Description string
	City        string
	Address     string
	PriceCents  int64
	Rooms       int
	AreaSqm     float64
}

// Create 发布一条新房源，初始为未上架状态。
func (s *ListingService) Create(input CreateListingInput) (*domain.Listing, error) {
	now := time.Now().UTC()
	listing := &domain.Listing{
		ID:          uuid.NewString(),
		OwnerID:     input.OwnerID,
		Title:       input.Title,
		Description: input.Description,
		City:        input.City,
		Address:     input.Address,
		PriceCents:  input.PriceCents,
		Rooms:       input.Rooms,
		AreaSqm:     input.AreaSqm,
		IsPublished: false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := domain.ValidateListing(listing); err != nil {
		return nil, err
	}

	if err := s.repo.SaveListing(listing); err != nil {
		return nil, err
	}

	return listing, nil
}

// Get 获取单条房源详情。
func (s *ListingService) Get(id string) (*domain.Listing, error) {
	return s.repo.GetListing(id)
}

// List 按筛选条件分页返回房源。
func (s *ListingService) List(filter domain.ListingFilter) ([]domain.Listing, int, error) {
	return s.repo.ListListings(filter)
}

// UpdateListingInput 定义更新房源的输入，nil 字段保持不变。
type UpdateListingInput struct {
	Title       *string
	Description *string
	City        *string
	Address     *string
	PriceCents  *int64
	Rooms       *int
	AreaSqm     *float64
	IsPublished *bool
}

// Update 更新房源信息，只有发布者本人可以操作。
func (s *ListingService) Update(ownerID, listingID string, input UpdateListingInput) (*domain.Listing, error) {
	listing, err := s.repo.GetListing(listingID)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != ownerID {
		return nil, ErrNotListingOwner
	}

	if input.Title != nil {
		listing.Title = *input.Title
	}
	if input.Description != nil {
		listing.Description = *input.Description
	}
	if input.City != nil {
		listing.City = *input.City
	}
	if input.Address != nil {
		listing.Address = *input.Address
	}
	if input.PriceCents != nil {
		listing.PriceCents = *input.PriceCents
	}
	if input.Rooms != nil {
		listing.Rooms = *input.Rooms
	}
	if input.AreaSqm != nil {
		listing.AreaSqm = *input.AreaSqm
	}
	if input.IsPublished != nil {
		listing.IsPublished = *input.IsPublished
	}

	if err := domain.ValidateListing(listing); err != nil {
		return nil, err
	}

	if err := s.repo.SaveListing(listing); err != nil {
		return nil, err
	}

	return listing, nil
}

// Delete 删除房源及其全部图片，只有发布者本人可以操作。
func (s *ListingService) Delete(ownerID, listingID string) error {
	listing, err := s.repo.GetListing(listingID)
	if err != nil {
		return err
	}
	if listing.OwnerID != ownerID {
		return ErrNotListingOwner
	}

	if err := s.repo.DeleteListing(listingID); err != nil {
		return err
	}

	if s.images != nil {
		// 图片内容清理失败不影响删除结果
		_ = s.images.DeleteListingImages(listingID)
	}

	return nil
}

// AddImageInput 定义上传房源图片的输入。
type AddImageInput struct {
	ListingID   string
	Filename    string
	ContentType string
	Content     []byte
}

// AddImage 为房源上传一张图片，只有发布者本人可以操作。
func (s *ListingService) AddImage(ownerID string, input AddImageInput) (*domain.ListingImage, error) {
	listing, err := s.repo.GetListing(input.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != ownerID {
		return nil, ErrNotListingOwner
	}
	if int64(len(input.Content)) > s.maxImageSize {
		return nil, ErrImageTooLarge
	}

	image := &domain.ListingImage{
		ID:          uuid.NewString(),
		ListingID:   input.ListingID,
		Filename:    input.Filename,
		ContentType: input.ContentType,
		Size:        int64(len(input.Content)),
		CreatedAt:   time.Now().UTC(),
	}

	if s.images != nil {
		path, err := s.images.SaveImage(input.ListingID, image.ID, input.Content)
		if err != nil {
			return nil, err
		}
		image.StoragePath = path
	}

	if err := s.repo.SaveListingImage(image); err != nil {
		return nil, err
	}

	return image, nil
}

// GetImage 获取单张图片，包含文件系统中的内容。
func (s *ListingService) GetImage(imageID string) (*domain.ListingImage, error) {
	image, err := s.repo.GetListingImage(imageID)
	if err != nil {
		return nil, err
	}

	if s.images != nil {
		content, err := s.images.GetImage(image.ListingID, image.ID)
		if err != nil {
			return nil, err
		}
		image.Content = content
	}

	return image, nil
}

// ListImages 列出房源的全部图片元数据。
func (s *ListingService) ListImages(listingID string) ([]domain.ListingImage, error) {
	return s.repo.ListListingImages(listingID)
}

// DeleteImage 删除一张图片，只有发布者本人可以操作。
func (s *ListingService) DeleteImage(ownerID, imageID string) error {
	image, err := s.repo.GetListingImage(imageID)
	if err != nil {
		return err
	}

	listing, err := s.repo.GetListing(image.ListingID)
	if err != nil {
		return err
	}
	if listing.OwnerID != ownerID {
		return ErrNotListingOwner
	}

	if err := s.repo.DeleteListingImage(imageID); err != nil {
		return err
	}

	if s.images != nil {
		_ = s.images.DeleteImage(image.ListingID, imageID)
	}

	return nil
}
