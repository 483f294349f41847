package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wellness_erp_v1_202609/internal/api/dto"
	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/service"
)

// AuthController 登录认证
type AuthController struct {
	authService *service.AuthService
}

// NewAuthController 创建认证控制器
func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// Login 用户名密码登录
func (ctrl *AuthController) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	result, err := ctrl.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, dto.LoginResponse{
		AccessToken: result.AccessToken,
		Staff: dto.StaffInfo{
			ID:         result.Staff.ID,
			Name:       result.Staff.Name,
			Username:   result.Staff.Username,
			Permission: result.Staff.Permission,
		},
		Store: dto.StoreInfo{
			ID:    result.Store.ID,
			Name:  result.Store.Name,
			Level: result.Store.Level,
			Type:  result.Store.Type,
		},
	})
}

// CreateStaff 新建员工，管理员接口
func (ctrl *AuthController) CreateStaff(c *gin.Context) {
	var req dto.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	staff := &model.Staff{
		Name:       req.Name,
		Username:   req.Username,
		StoreID:    req.StoreID,
		Permission: req.Permission,
		Phone:      req.Phone,
		Status:     model.StatusActive,
	}
	if err := ctrl.authService.CreateStaff(c.Request.Context(), staff, req.Password); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, staff)
}
