package httptransport

import (
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"renthub/backend/internal/domain"
	"renthub/backend/internal/service"
	"renthub/backend/internal/storage"
)

type createListingRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	City        string  `json:"city"`
	Address     string  `json:"address"`
	PriceCents  int64   `json:"priceCents"`
	Rooms       int     `json:"rooms"`
	AreaSqm     float64 `json:"areaSqm"`
}

type updateListingRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	City        *string  `json:"city"`
	Address     *string  `json:"address"`
	PriceCents  *int64   `json:"priceCents"`
	Rooms       *int     `json:"rooms"`
	AreaSqm     *float64 `json:"areaSqm"`
	IsPublished *bool    `json:"isPublished"`
}

// createListing 发布一条新房源
// @Summary 发布房源
// @Description 创建一条房源，初始为未上架状态
// @Tags 房源
// @Accept json
// @Produce json
// @Param request body createListingRequest true "房源信息"
// @Success 201 {object} domain.Listing "发布成功"
// @Security BearerAuth
// @Router /v1/listings [post]
func (h *Handler) createListing(c *gin.Context) {
	ownerID := c.GetString("userID")

	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	listing, err := h.listings.Create(service.CreateListingInput{
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		City:        req.City,
		Address:     req.Address,
		PriceCents:  req.PriceCents,
		Rooms:       req.Rooms,
		AreaSqm:     req.AreaSqm,
	})
	if err != nil {
		switch err {
		case domain.ErrTitleEmpty, domain.ErrPriceNegative:
			BadRequest(c, GetErrorMessage(err))
		default:
			h.log.Error("failed to create listing", zap.Error(err))
			InternalError(c, MsgListingCreateFailed)
		}
		return
	}

	Created(c, listing)
}

// listListings 按条件分页浏览房源
//
// 未登录用户只能看到已上架房源；带 mine=true 时返回自己的全部房源。
// @Summary 房源列表
// @Tags 房源
// @Produce json
// @Param city query string false "城市"
// @Param page query int false "页码"
// @Param pageSize query int false "每页条数"
// @Param mine query bool false "只看我发布的"
// @Router /v1/listings [get]
func (h *Handler) listListings(c *gin.Context) {
	filter := domain.ListingFilter{
		City:          c.Query("city"),
		PublishedOnly: true,
	}

	if c.Query("mine") == "true" {
		viewerID := c.GetString("userID")
		if viewerID == "" {
			Unauthorized(c, MsgAuthRequired)
			return
		}
		filter.OwnerID = viewerID
		filter.PublishedOnly = false
	}

	if raw := c.Query("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			filter.Page = parsed
		}
	}
	if raw := c.Query("pageSize"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			filter.PageSize = parsed
		}
	}

	listings, total, err := h.listings.List(filter)
	if err != nil {
		h.log.Error("failed to list listings", zap.Error(err))
		InternalError(c, MsgListingListFailed)
		return
	}

	Success(c, gin.H{
		"listings": listings,
		"total":    total,
	})
}

// getListing 获取房源详情
// @Summary 房源详情
// @Tags 房源
// @Param id path string true "房源ID"
// @Router /v1/listings/{id} [get]
func (h *Handler) getListing(c *gin.Context) {
	listing, err := h.listings.Get(c.Param("id"))
	if err != nil {
		if err == storage.ErrListingNotFound {
			NotFound(c, MsgListingNotFound)
			return
		}
		h.log.Error("failed to get listing", zap.Error(err))
		InternalError(c, MsgListingListFailed)
		return
	}

	Success(c, listing)
}

// updateListing 更新房源信息（含上架/下架）
// @Summary 更新房源
// @Tags 房源
// @Param id path string true "房源ID"
// @Security BearerAuth
// @Router /v1/listings/{id} [patch]
func (h *Handler) updateListing(c *gin.Context) {
	ownerID := c.GetString("userID")

	var req updateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	listing, err := h.listings.Update(ownerID, c.Param("id"), service.UpdateListingInput{
		Title:       req.Title,
		Description: req.Description,
		City:        req.City,
		Address:     req.Address,
		PriceCents:  req.PriceCents,
		Rooms:       req.Rooms,
		AreaSqm:     req.AreaSqm,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		switch err {
		case storage.ErrListingNotFound:
			NotFound(c, MsgListingNotFound)
		case service.ErrNotListingOwner:
			Forbidden(c, GetErrorMessage(err))
		case domain.ErrTitleEmpty, domain.ErrPriceNegative:
			BadRequest(c, GetErrorMessage(err))
		default:
			h.log.Error("failed to update listing", zap.Error(err))
			InternalError(c, MsgListingUpdateFailed)
		}
		return
	}

	Success(c, listing)
}

// deleteListing 删除房源及其全部图片
// @Summary 删除房源
// @Tags 房源
// @Param id path string true "房源ID"
// @Security BearerAuth
// @Router /v1/listings/{id} [delete]
func (h *Handler) deleteListing(c *gin.Context) {
	ownerID := c.GetString("userID")

	if err := h.listings.Delete(ownerID, c.Param("id")); err != nil {
		switch err {
		case storage.ErrListingNotFound:
			NotFound(c, MsgListingNotFound)
		case service.ErrNotListingOwner:
			Forbidden(c, GetErrorMessage(err))
		default:
			h.log.Error("failed to delete listing", zap.Error(err))
			InternalError(c, MsgListingDeleteFailed)
		}
		return
	}

	NoContent(c)
}

// uploadImage 为房源上传一张图片
//
// 图片以 multipart 表单上传，内容落在文件系统，元数据入库。
// @Summary 上传房源图片
// @Tags 房源
// @Param id path string true "房源ID"
// @Security BearerAuth
// @Router /v1/listings/{id}/images [post]
func (h *Handler) uploadImage(c *gin.Context) {
	ownerID := c.GetString("userID")

	file, err := c.FormFile("image")
	if err != nil {
		BadRequest(c, "缺少图片文件")
		return
	}

	src, err := file.Open()
	if err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		InternalError(c, MsgImageUploadFailed)
		return
	}

	image, err := h.listings.AddImage(ownerID, service.AddImageInput{
		ListingID:   c.Param("id"),
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		switch err {
		case storage.ErrListingNotFound:
			NotFound(c, MsgListingNotFound)
		case service.ErrNotListingOwner:
			Forbidden(c, GetErrorMessage(err))
		case service.ErrImageTooLarge:
			PayloadTooLarge(c, GetErrorMessage(err))
		default:
			h.log.Error("failed to upload image", zap.Error(err))
			InternalError(c, MsgImageUploadFailed)
		}
		return
	}

	Created(c, image)
}

// listImages 列出房源的全部图片元数据
// @Summary 房源图片列表
// @Tags 房源
// @Param id path string true "房源ID"
// @Router /v1/listings/{id}/images [get]
func (h *Handler) listImages(c *gin.Context) {
	images, err := h.listings.ListImages(c.Param("id"))
	if err != nil {
		h.log.Error("failed to list images", zap.Error(err))
		InternalError(c, MsgImageListFailed)
		return
	}

	Success(c, gin.H{
		"images": images,
		"total":  len(images),
	})
}

// getImage 下载一张房源图片
// @Summary 下载房源图片
// @Tags 房源
// @Param id path string true "房源ID"
// @Param imageId path string true "图片ID"
// @Router /v1/listings/{id}/images/{imageId} [get]
func (h *Handler) getImage(c *gin.Context) {
	image, err := h.listings.GetImage(c.Param("imageId"))
	if err != nil {
		if err == storage.ErrImageNotFound {
			NotFound(c, MsgImageNotFound)
			return
		}
		h.log.Error("failed to get image", zap.Error(err))
		InternalError(c, MsgImageListFailed)
		return
	}

	contentType := image.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Content-Disposition", `inline; filename="`+image.Filename+`"`)
	c.Data(200, contentType, image.Content)
}

// deleteImage 删除一张房源图片
// @Summary 删除房源图片
// @Tags 房源
// @Param id path string true "房源ID"
// @Param imageId path string true "图片ID"
// @Security BearerAuth
// @Router /v1/listings/{id}/images/{imageId} [delete]
func (h *Handler) deleteImage(c *gin.Context) {
	ownerID := c.GetString("userID")

	if err := h.listings.DeleteImage(ownerID, c.Param("imageId")); err != nil {
		switch err {
		case storage.ErrImageNotFound:
			NotFound(c, MsgImageNotFound)
		case storage.ErrListingNotFound:
			NotFound(c, MsgListingNotFound)
		case service.ErrNotListingOwner:
			Forbidden(c, GetErrorMessage(err))
		default:
			h.log.Error("failed to delete image", zap.Error(err))
			InternalError(c, MsgImageDeleteFailed)
		}
		return
	}

	NoContent(c)
}
