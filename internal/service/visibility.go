package service

import (
	"wellness_erp_v1_202609/internal/middleware"
	"wellness_erp_v1_202609/pkg/utils"
)

// ==================== 可见性过滤 ====================

// RowVisible 判断一行目录数据对当前调用者是否可见
// 管理员/总部无条件可见；其余按门店集合与权限集合取交
func RowVisible(claims *middleware.StoreClaims, storeIDs utils.IntList, permissions utils.StringList) bool {
	if claims == nil {
		return false
	}
	if claims.IsAdmin() {
		return true
	}
	if len(storeIDs) > 0 && !storeIDs.Contains(claims.StoreID) {
		return false
	}
	if len(permissions) > 0 && !permissions.Contains(claims.Permission) {
		return false
	}
	return true
}
