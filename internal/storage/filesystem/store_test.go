package filesystem

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveAndGetImage(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	t.Run("保存后可以读回内容", func(t *testing.T) {
		relPath, err := store.SaveImage("listing-1", "img-1", []byte("jpeg-bytes"))

		require.NoError(t, err)
		assert.Equal(t, filepath.Join("listings", "listing-1", "img-1"), relPath)

		content, err := store.GetImage("listing-1", "img-1")
		require.NoError(t, err)
		assert.Equal(t, []byte("jpeg-bytes"), content)
	})

	t.Run("读取不存在的图片返回错误", func(t *testing.T) {
		content, err := store.GetImage("listing-1", "ghost")

		assert.Error(t, err)
		assert.Nil(t, content)
	})

	t.Run("路径分量中的穿越字符被清理", func(t *testing.T) {
		_, err := store.SaveImage("../escape", "img", []byte("x"))
		require.NoError(t, err)

		content, err := store.GetImage("../escape", "img")
		require.NoError(t, err)
		assert.Equal(t, []byte("x"), content)
	})
}

func TestStore_Delete(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.SaveImage("listing-1", "img-1", []byte("a"))
	require.NoError(t, err)
	_, err = store.SaveImage("listing-1", "img-2", []byte("b"))
	require.NoError(t, err)

	t.Run("删除单张图片", func(t *testing.T) {
		err := store.DeleteImage("listing-1", "img-1")

		require.NoError(t, err)
		_, err = store.GetImage("listing-1", "img-1")
		assert.Error(t, err)

		// 其他图片不受影响
		_, err = store.GetImage("listing-1", "img-2")
		assert.NoError(t, err)
	})

	t.Run("删除不存在的图片不报错", func(t *testing.T) {
		err := store.DeleteImage("listing-1", "ghost")

		assert.NoError(t, err)
	})

	t.Run("删除房源的全部图片", func(t *testing.T) {
		err := store.DeleteListingImages("listing-1")

		require.NoError(t, err)
		_, err = store.GetImage("listing-1", "img-2")
		assert.Error(t, err)
	})
}

func TestStore_GetStorageStats(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.SaveImage("listing-1", "img-1", []byte("12345"))
	require.NoError(t, err)
	_, err = store.SaveImage("listing-2", "img-2", []byte("123"))
	require.NoError(t, err)

	stats, err := store.GetStorageStats()

	require.NoError(t, err)
	assert.Equal(t, int64(8), stats["total_size_bytes"])
	assert.Equal(t, 2, stats["image_count"])
}

func TestNewStore_InvalidPath(t *testing.T) {
	store, err := NewStore("  ")

	assert.Nil(t, store)
	assert.Error(t, err)
}
