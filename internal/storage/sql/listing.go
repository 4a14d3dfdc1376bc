package sql

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"renthub/backend/internal/domain"
	"renthub/backend/internal/storage"
)

// ========== Listing Repository ==========

// SaveListing 保存房源信息。已存在则覆盖。
func (s *Store) SaveListing(listing *domain.Listing) error {
	return s.gorm.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(listing).Error
}

// GetListing 根据 ID 获取房源。
func (s *Store) GetListing(id string) (*domain.Listing, error) {
	var listing domain.Listing
	err := s.gorm.First(&listing, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrListingNotFound
		}
		return nil, err
	}
	return &listing, nil
}

// ListListings 按筛选条件分页返回房源，按创建时间降序。
func (s *Store) ListListings(filter domain.ListingFilter) ([]domain.Listing, int, error) {
	query := s.gorm.Model(&domain.Listing{})

	if filter.City != "" {
		query = query.Where("lower(city) = lower(?)", filter.City)
	}
	if filter.OwnerID != "" {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.PublishedOnly {
		query = query.Where("is_published = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	pageSize := filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	listings := make([]domain.Listing, 0)
	err := query.
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&listings).Error
	if err != nil {
		return nil, 0, err
	}

	return listings, int(total), nil
}

// DeleteListing 删除房源及其图片元数据。
func (s *Store) DeleteListing(id string) error {
	return s.gorm.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&domain.Listing{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return storage.ErrListingNotFound
		}
		return tx.Delete(&domain.ListingImage{}, "listing_id = ?", id).Error
	})
}

// SaveListingImage 保存房源图片元数据。
func (s *Store) SaveListingImage(image *domain.ListingImage) error {
	// 房源必须存在
	var count int64
	if err := s.gorm.Model(&domain.Listing{}).Where("id = ?", image.ListingID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return storage.ErrListingNotFound
	}
	return s.gorm.Create(image).Error
}

// GetListingImage 获取单张图片元数据。
func (s *Store) GetListingImage(imageID string) (*domain.ListingImage, error) {
	var image domain.ListingImage
	err := s.gorm.First(&image, "id = ?", imageID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrImageNotFound
		}
		return nil, err
	}
	return &image, nil
}

// ListListingImages 列出某个房源的全部图片元数据，按创建时间升序。
func (s *Store) ListListingImages(listingID string) ([]domain.ListingImage, error) {
	images := make([]domain.ListingImage, 0)
	err := s.gorm.
		Where("listing_id = ?", listingID).
		Order("created_at ASC").
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

// DeleteListingImage 删除图片元数据。
func (s *Store) DeleteListingImage(imageID string) error {
	result := s.gorm.Delete(&domain.ListingImage{}, "id = ?", imageID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrImageNotFound
	}
	return nil
}
