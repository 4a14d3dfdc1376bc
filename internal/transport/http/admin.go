package httptransport

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"renthub/backend/internal/domain"
	"renthub/backend/internal/service"
)

// AdminHandler 处理平台管理相关的 HTTP 请求
type AdminHandler struct {
	adminService *service.AdminService
	log          *zap.Logger
}

// NewAdminHandler 创建管理处理器
func NewAdminHandler(adminService *service.AdminService, log *zap.Logger) *AdminHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminHandler{
		adminService: adminService,
		log:          log,
	}
}

type updateUserRequest struct {
	Role            *string `json:"role"`
	IsActive        *bool   `json:"isActive"`
	IsEmailVerified *bool   `json:"isEmailVerified"`
}

// ListUsers 列出平台用户
// @Summary 用户列表
// @Description 分页列出平台用户，支持按邮箱/用户名搜索及角色、状态筛选
// @Tags 管理
// @Produce json
// @Param page query int false "页码"
// @Param pageSize query int false "每页条数"
// @Param search query string false "搜索关键词"
// @Param role query string false "角色筛选"
// @Param isActive query bool false "状态筛选"
// @Security BearerAuth
// @Router /v1/admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	input := service.ListUsersInput{
		Search: c.Query("search"),
	}

	if raw := c.Query("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			input.Page = parsed
		}
	}
	if raw := c.Query("pageSize"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			input.PageSize = parsed
		}
	}
	if raw := c.Query("role"); raw != "" {
		role := domain.UserRole(raw)
		input.Role = &role
	}
	if raw := c.Query("isActive"); raw != "" {
		active := raw == "true"
		input.IsActive = &active
	}

	output, err := h.adminService.ListUsers(input)
	if err != nil {
		h.log.Error("failed to list users", zap.Error(err))
		InternalError(c, MsgUserListFailed)
		return
	}

	Success(c, output)
}

// GetUser 获取用户详情
// @Summary 用户详情
// @Tags 管理
// @Param id path string true "用户ID"
// @Security BearerAuth
// @Router /v1/admin/users/{id} [get]
func (h *AdminHandler) GetUser(c *gin.Context) {
	user, err := h.adminService.GetUser(c.Param("id"))
	if err != nil {
		if err == service.ErrAdminUserNotFound {
			NotFound(c, MsgUserNotFound)
			return
		}
		h.log.Error("failed to get user", zap.Error(err))
		InternalError(c, MsgUserGetFailed)
		return
	}

	Success(c, user)
}

// UpdateUser 更新用户的角色和状态
//
// 角色变更只有超级管理员可以执行；不能修改自己，
// 普通管理员不能修改超级管理员。
// @Summary 更新用户
// @Tags 管理
// @Param id path string true "用户ID"
// @Param request body updateUserRequest true "更新字段"
// @Security BearerAuth
// @Router /v1/admin/users/{id} [patch]
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	operatorID := c.GetString("userID")

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	input := service.UpdateUserInput{
		UserID:          c.Param("id"),
		IsActive:        req.IsActive,
		IsEmailVerified: req.IsEmailVerified,
		OperatorID:      operatorID,
	}
	if req.Role != nil {
		role := domain.UserRole(*req.Role)
		input.Role = &role
	}

	user, err := h.adminService.UpdateUser(input)
	if err != nil {
		switch err {
		case service.ErrAdminUserNotFound:
			NotFound(c, MsgUserNotFound)
		case service.ErrCannotModifySelf, service.ErrCannotModifySuper, service.ErrInsufficientPermission:
			Forbidden(c, GetErrorMessage(err))
		case service.ErrUnauthorized:
			Unauthorized(c, GetErrorMessage(err))
		default:
			h.log.Error("failed to update user", zap.Error(err))
			InternalError(c, MsgUserUpdateFailed)
		}
		return
	}

	Success(c, user)
}

// GetStatistics 获取平台运营统计信息
// @Summary 运营统计
// @Tags 管理
// @Security BearerAuth
// @Router /v1/admin/statistics [get]
func (h *AdminHandler) GetStatistics(c *gin.Context) {
	stats, err := h.adminService.GetStatistics()
	if err != nil {
		h.log.Error("failed to get statistics", zap.Error(err))
		InternalError(c, MsgStatisticsGetFailed)
		return
	}

	Success(c, stats)
}
