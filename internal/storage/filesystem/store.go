package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store 房源图片的文件系统存储实现
//
// 目录布局: {basePath}/listings/{listingID}/{imageID}
// 数据库只存元数据，图片字节落盘。
type Store struct {
	basePath string
}

// NewStore 创建文件系统存储实例
func NewStore(basePath string) (*Store, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("base path is required")
	}

	normalizedPath := filepath.Clean(basePath)

	// 确保基础目录存在
	if err := os.MkdirAll(normalizedPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Store{basePath: normalizedPath}, nil
}

// SaveImage 保存图片内容，返回相对存储路径。
func (s *Store) SaveImage(listingID, imageID string, content []byte) (string, error) {
	listingPath := s.listingPath(listingID)
	if err := os.MkdirAll(listingPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create listing directory: %w", err)
	}

	imageFile := filepath.Join(listingPath, sanitizeName(imageID))
	if err := os.WriteFile(imageFile, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	// 返回相对存储路径（便于持久化到数据库）
	relPath, err := filepath.Rel(s.basePath, imageFile)
	if err != nil {
		return imageFile, nil
	}

	return relPath, nil
}

// GetImage 读取图片内容。
func (s *Store) GetImage(listingID, imageID string) ([]byte, error) {
	imageFile := filepath.Join(s.listingPath(listingID), sanitizeName(imageID))

	content, err := os.ReadFile(imageFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found")
		}
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	return content, nil
}

// DeleteImage 删除单张图片。
func (s *Store) DeleteImage(listingID, imageID string) error {
	imageFile := filepath.Join(s.listingPath(listingID), sanitizeName(imageID))
	if err := os.Remove(imageFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// DeleteListingImages 删除某个房源的全部图片。
func (s *Store) DeleteListingImages(listingID string) error {
	return os.RemoveAll(s.listingPath(listingID))
}

// GetStorageStats 获取存储统计信息
func (s *Store) GetStorageStats() (map[string]interface{}, error) {
	listingsPath := filepath.Join(s.basePath, "listings")

	var totalSize int64
	var imageCount int

	err := filepath.Walk(listingsPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // 跳过错误，继续遍历
		}
		if !info.IsDir() {
			totalSize += info.Size()
			imageCount++
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return map[string]interface{}{
		"total_size_bytes": totalSize,
		"total_size_mb":    float64(totalSize) / 1024 / 1024,
		"image_count":      imageCount,
		"base_path":        s.basePath,
	}, nil
}

// listingPath 获取房源图片目录
func (s *Store) listingPath(listingID string) string {
	return filepath.Join(s.basePath, "listings", sanitizeName(listingID))
}

// sanitizeName 清理路径分量，防止目录穿越
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" {
		name = "_"
	}
	return name
}
