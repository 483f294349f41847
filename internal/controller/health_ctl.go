package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wellness_erp_v1_202609/internal/api/dto"
	"wellness_erp_v1_202609/internal/middleware"
	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/service"
)

// HealthController 会员与健康档案
type HealthController struct {
	healthService *service.HealthService
}

// NewHealthController 创建健康档案控制器
func NewHealthController(healthService *service.HealthService) *HealthController {
	return &HealthController{healthService: healthService}
}

// ==================== 会员 ====================

// ListMembers 会员列表
func (ctrl *HealthController) ListMembers(c *gin.Context) {
	page, pageSize := pagination(c)
	members, total, err := ctrl.healthService.ListMembers(c.Request.Context(),
		callerStore(c), c.Query("keyword"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, members, total, page, pageSize)
}

// GetMember 会员详情
func (ctrl *HealthController) GetMember(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	member, err := ctrl.healthService.GetMember(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, member)
}

// CreateMember 新建会员
func (ctrl *HealthController) CreateMember(c *gin.Context) {
	var req dto.SaveMemberReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	birthday, err := parseDate(req.Birthday)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "生日格式非法: " + req.Birthday})
		return
	}

	claims := middleware.GetClaims(c)
	member := &model.Member{
		Name:         req.Name,
		Phone:        req.Phone,
		Gender:       req.Gender,
		StoreID:      claims.StoreID,
		IdentityType: req.IdentityType,
		Note:         req.Note,
	}
	if !birthday.IsZero() {
		member.Birthday = &birthday
	}
	if err := ctrl.healthService.CreateMember(c.Request.Context(), member); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, member)
}

// UpdateMember 更新会员
func (ctrl *HealthController) UpdateMember(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	member, err := ctrl.healthService.UpdateMember(c.Request.Context(), id, fields)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, member)
}

// DeleteMember 删除会员
func (ctrl *HealthController) DeleteMember(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := ctrl.healthService.DeleteMember(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// ==================== 病史档案 ====================

// ListMedicalRecords 病史列表
func (ctrl *HealthController) ListMedicalRecords(c *gin.Context) {
	memberID, err := parseInt64(c.Query("member_id"))
	if err != nil || memberID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "无效的 member_id"})
		return
	}
	page, pageSize := pagination(c)
	records, total, err := ctrl.healthService.ListMedicalRecords(c.Request.Context(), memberID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, records, total, page, pageSize)
}

// AddMedicalRecord 记病史
func (ctrl *HealthController) AddMedicalRecord(c *gin.Context) {
	var req dto.AddMedicalRecordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	recordDate, err := parseDate(req.RecordDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "日期格式非法: " + req.RecordDate})
		return
	}

	claims := middleware.GetClaims(c)
	record := &model.MedicalRecord{
		MemberID:   req.MemberID,
		StaffID:    optionalStaffID(claims.StaffID),
		StoreID:    claims.StoreID,
		RecordDate: recordDate,
		Content:    req.Content,
	}
	if err := ctrl.healthService.AddMedicalRecord(c.Request.Context(), record); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, record)
}

// UpdateMedicalRecord 改病史内容
func (ctrl *HealthController) UpdateMedicalRecord(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateMedicalRecordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	if err := ctrl.healthService.UpdateMedicalRecord(c.Request.Context(), id, req.Content); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// DeleteMedicalRecord 删病史
func (ctrl *HealthController) DeleteMedicalRecord(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := ctrl.healthService.DeleteMedicalRecord(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// ==================== 纯净健康记录 ====================

// ListPureHealthRecords 纯净健康记录列表
func (ctrl *HealthController) ListPureHealthRecords(c *gin.Context) {
	memberID, err := parseInt64(c.Query("member_id"))
	if err != nil || memberID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "无效的 member_id"})
		return
	}
	page, pageSize := pagination(c)
	records, total, err := ctrl.healthService.ListPureHealthRecords(c.Request.Context(), memberID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, records, total, page, pageSize)
}

// AddPureHealthRecord 记纯净健康记录
func (ctrl *HealthController) AddPureHealthRecord(c *gin.Context) {
	var req dto.AddPureHealthRecordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	recordDate, err := parseDate(req.RecordDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "日期格式非法: " + req.RecordDate})
		return
	}

	claims := middleware.GetClaims(c)
	record := &model.PureHealthRecord{
		MemberID:   req.MemberID,
		StaffID:    optionalStaffID(claims.StaffID),
		StoreID:    claims.StoreID,
		RecordDate: recordDate,
		Item:       req.Item,
		Result:     req.Result,
		Note:       req.Note,
	}
	if err := ctrl.healthService.AddPureHealthRecord(c.Request.Context(), record); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, record)
}

// DeletePureHealthRecord 删纯净健康记录
func (ctrl *HealthController) DeletePureHealthRecord(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := ctrl.healthService.DeletePureHealthRecord(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// ==================== 压力测试 ====================

// SubmitStressTest 提交答卷
func (ctrl *HealthController) SubmitStressTest(c *gin.Context) {
	var req dto.SubmitStressTestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	claims := middleware.GetClaims(c)
	test, err := ctrl.healthService.SubmitStressTest(c.Request.Context(),
		req.MemberID, optionalStaffID(claims.StaffID), claims.StoreID, req.Answers)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, test)
}

// ListStressTests 历次答卷
func (ctrl *HealthController) ListStressTests(c *gin.Context) {
	memberID, err := parseInt64(c.Query("member_id"))
	if err != nil || memberID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "无效的 member_id"})
		return
	}
	tests, err := ctrl.healthService.ListStressTests(c.Request.Context(), memberID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, tests)
}

// ==================== 疗程消耗 ====================

// AddTherapyRecord 记一次疗程消耗
func (ctrl *HealthController) AddTherapyRecord(c *gin.Context) {
	var req dto.AddTherapyRecordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	recordDate, err := parseDate(req.RecordDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "日期格式非法: " + req.RecordDate})
		return
	}
	if recordDate.IsZero() {
		recordDate = time.Now()
	}

	claims := middleware.GetClaims(c)
	record := &model.TherapyRecord{
		MemberID:       req.MemberID,
		TherapyID:      req.TherapyID,
		StaffID:        optionalStaffID(claims.StaffID),
		StoreID:        claims.StoreID,
		RecordDate:     recordDate,
		DeductSessions: req.DeductSessions,
		Note:           req.Note,
	}
	if err := ctrl.healthService.AddTherapyRecord(c.Request.Context(), record); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, record)
}

// ListTherapyRecords 疗程消耗列表
func (ctrl *HealthController) ListTherapyRecords(c *gin.Context) {
	memberID, err := parseInt64(c.Query("member_id"))
	if err != nil || memberID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "无效的 member_id"})
		return
	}
	records, err := ctrl.healthService.ListTherapyRecords(c.Request.Context(), memberID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, records)
}

// ListStores 门店列表
func (ctrl *HealthController) ListStores(c *gin.Context) {
	stores, err := ctrl.healthService.ListStores(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, stores)
}
