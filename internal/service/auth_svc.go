package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"wellness_erp_v1_202609/internal/errs"
	"wellness_erp_v1_202609/internal/middleware"
	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/repository"
)

// ==================== 登录认证 ====================

// AuthService 员工登录，签发门店口径的访问令牌
type AuthService struct {
	memberRepo repository.MemberRepository
}

// NewAuthService 创建认证服务
func NewAuthService(memberRepo repository.MemberRepository) *AuthService {
	return &AuthService{memberRepo: memberRepo}
}

// LoginResult 登录结果
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	Staff       *model.Staff `json:"staff"`
	Store       *model.Store `json:"store"`
}

// Login 用户名密码登录
// 口令校验失败与用户不存在同口径返回，避免探测
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, errs.Validation("用户名与密码不能为空")
	}

	staff, err := s.memberRepo.GetStaffByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.KindAuthRequired, "用户名或密码错误")
		}
		return nil, err
	}
	if staff.Status != model.StatusActive {
		return nil, errs.PermissionDenied("账号已停用: %s", username)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.Password), []byte(password)); err != nil {
		return nil, errs.New(errs.KindAuthRequired, "用户名或密码错误")
	}

	store, err := s.memberRepo.GetStore(ctx, staff.StoreID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("员工所属门店不存在: %d", staff.StoreID)
		}
		return nil, err
	}

	token, err := middleware.GenerateAccessToken(middleware.StoreClaims{
		StoreID:    store.ID,
		StoreLevel: store.Level,
		StoreName:  store.Name,
		StoreType:  store.Type,
		Permission: staff.Permission,
		StaffID:    staff.ID,
	})
	if err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: token, Staff: staff, Store: store}, nil
}

// CreateStaff 新建员工，口令走 bcrypt
func (s *AuthService) CreateStaff(ctx context.Context, staff *model.Staff, plainPassword string) error {
	if staff.Username == "" || plainPassword == "" {
		return errs.Validation("用户名与密码不能为空")
	}
	if staff.Permission == "" {
		staff.Permission = model.PermissionBasic
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	staff.Password = string(hashed)
	if err := s.memberRepo.CreateStaff(ctx, staff); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.Conflict("用户名已存在: %s", staff.Username)
		}
		return err
	}
	return nil
}
