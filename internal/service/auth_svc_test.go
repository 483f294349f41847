package service

import (
	"context"
	"testing"

	"wellness_erp_v1_202609/internal/errs"
	"wellness_erp_v1_202609/internal/middleware"
	"wellness_erp_v1_202609/internal/model"
)

func setupAuthEnv(t *testing.T) (*testEnv, *AuthService, *model.Store) {
	t.Helper()
	env := newTestEnv(t)
	auth := NewAuthService(env.memberRepo)

	store := &model.Store{Name: "旗舰店", Level: model.StoreLevelBranch, Type: model.StoreTypeDirect}
	if err := env.db.Create(store).Error; err != nil {
		t.Fatalf("建门店失败: %v", err)
	}
	return env, auth, store
}

func TestLogin(t *testing.T) {
	_, auth, store := setupAuthEnv(t)
	ctx := context.Background()

	staff := &model.Staff{
		Name:       "张店长",
		Username:   "zhang",
		StoreID:    store.ID,
		Permission: model.PermissionAdmin,
	}
	if err := auth.CreateStaff(ctx, staff, "s3cret"); err != nil {
		t.Fatalf("建员工失败: %v", err)
	}
	if staff.Password == "s3cret" {
		t.Fatal("口令不应明文落库")
	}

	result, err := auth.Login(ctx, "zhang", "s3cret")
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("登录未签发令牌")
	}
	if result.Store.ID != store.ID {
		t.Errorf("门店 = %+v", result.Store)
	}

	claims, err := middleware.ParseToken(result.AccessToken)
	if err != nil {
		t.Fatalf("令牌解析失败: %v", err)
	}
	if claims.StoreID != store.ID || claims.StaffID != staff.ID || claims.Permission != model.PermissionAdmin {
		t.Errorf("令牌声明 = %+v", claims)
	}
	if !claims.IsAdmin() {
		t.Error("admin 权限应判定为管理员")
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	_, auth, store := setupAuthEnv(t)
	ctx := context.Background()

	if err := auth.CreateStaff(ctx, &model.Staff{
		Name: "小李", Username: "li", StoreID: store.ID,
	}, "right-pass"); err != nil {
		t.Fatalf("建员工失败: %v", err)
	}

	// 用户不存在与口令错误返回同样的口径
	_, errUnknown := auth.Login(ctx, "nobody", "whatever")
	_, errWrongPw := auth.Login(ctx, "li", "wrong-pass")
	if errs.KindOf(errUnknown) != errs.KindAuthRequired || errs.KindOf(errWrongPw) != errs.KindAuthRequired {
		t.Fatalf("错误类型 = %v / %v", errUnknown, errWrongPw)
	}
	if errUnknown.Error() != errWrongPw.Error() {
		t.Errorf("两种失败的报错应不可区分: %q vs %q", errUnknown.Error(), errWrongPw.Error())
	}

	if _, err := auth.Login(ctx, "", "x"); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("空用户名应返回参数错误, got %v", err)
	}
}

func TestLoginInactiveStaff(t *testing.T) {
	env, auth, store := setupAuthEnv(t)
	ctx := context.Background()

	staff := &model.Staff{Name: "离职员工", Username: "gone", StoreID: store.ID}
	if err := auth.CreateStaff(ctx, staff, "pass"); err != nil {
		t.Fatalf("建员工失败: %v", err)
	}
	if err := env.db.Model(staff).Update("status", model.StatusInactive).Error; err != nil {
		t.Fatalf("停用员工失败: %v", err)
	}

	if _, err := auth.Login(ctx, "gone", "pass"); errs.KindOf(err) != errs.KindPermissionDenied {
		t.Errorf("停用账号登录应被拒绝, got %v", err)
	}
}

func TestCreateStaffDefaults(t *testing.T) {
	_, auth, store := setupAuthEnv(t)
	ctx := context.Background()

	if err := auth.CreateStaff(ctx, &model.Staff{Username: ""}, "x"); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("空用户名应返回参数错误, got %v", err)
	}

	staff := &model.Staff{Name: "新人", Username: "newbie", StoreID: store.ID}
	if err := auth.CreateStaff(ctx, staff, "pass"); err != nil {
		t.Fatalf("建员工失败: %v", err)
	}
	if staff.Permission != model.PermissionBasic {
		t.Errorf("默认权限 = %q", staff.Permission)
	}
}
