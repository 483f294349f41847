package controller

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"wellness_erp_v1_202609/internal/errs"
	"wellness_erp_v1_202609/pkg/logger"
)

// ==================== 响应约定 ====================

// respondError 领域错误按类别映射状态码，未知错误按 500 并留日志
func respondError(c *gin.Context, err error) {
	kind := errs.KindOf(err)
	status := kind.HTTPStatus()
	if status == http.StatusInternalServerError {
		logger.L.Error("请求处理失败",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, gin.H{"code": status, "message": "服务内部错误"})
		return
	}
	c.JSON(status, gin.H{"code": status, "message": err.Error()})
}

// respondOK 成功响应
func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": data})
}

// respondList 分页列表响应
func respondList(c *gin.Context, data interface{}, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, gin.H{
		"code":      0,
		"message":   "success",
		"data":      data,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// ==================== 参数解析 ====================

// pathID 路径 ID 参数
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "无效的 ID"})
		return 0, false
	}
	return id, true
}

// pagination page / page_size 查询参数
func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}

// parseDate YYYY-MM-DD，空串返回零值
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", raw)
}

// parseInt64 十进制整数
func parseInt64(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

// bindJSONBytes 已读出的 body 再绑定；validate 时走 binding 校验
func bindJSONBytes(body []byte, obj interface{}, validate bool) error {
	if validate {
		return binding.JSON.BindBody(body, obj)
	}
	return json.Unmarshal(body, obj)
}

// optionalStaffID 从身份里取员工 ID 指针，为 0 返回 nil
func optionalStaffID(staffID int64) *int64 {
	if staffID <= 0 {
		return nil
	}
	return &staffID
}
