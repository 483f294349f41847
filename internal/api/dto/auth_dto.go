package dto

// ==================== 登录 ====================

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=2,max=100"`
	Password string `json:"password" binding:"required,min=3,max=100"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	Staff       StaffInfo `json:"staff"`
	Store       StoreInfo `json:"store"`
}

// StaffInfo 员工信息
type StaffInfo struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Username   string `json:"username"`
	Permission string `json:"permission"`
}

// StoreInfo 门店信息
type StoreInfo struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Level string `json:"level"`
	Type  string `json:"type"`
}

// CreateStaffRequest 新建员工请求
type CreateStaffRequest struct {
	Name       string `json:"name" binding:"required,max=100"`
	Username   string `json:"username" binding:"required,min=2,max=100"`
	Password   string `json:"password" binding:"required,min=6,max=100"`
	StoreID    int64  `json:"store_id" binding:"required"`
	Permission string `json:"permission" binding:"omitempty,oneof=admin basic therapist"`
	Phone      string `json:"phone"`
}
