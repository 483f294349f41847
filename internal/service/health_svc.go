package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"wellness_erp_v1_202609/internal/errs"
	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/repository"
)

// ==================== 健康档案服务 ====================

// stressDims 压力测试计分表: 题号 → (甲选项维度, 乙选项维度)
// 答 "甲"/"A" 给第一维加 1，答 "乙"/"B" 给第二维加 1
var stressDims = map[string][2]string{
	"01": {"a", "b"}, "02": {"c", "b"}, "03": {"c", "d"}, "04": {"c", "a"},
	"05": {"b", "d"}, "06": {"d", "c"}, "07": {"a", "d"}, "08": {"c", "b"},
	"09": {"c", "d"}, "10": {"d", "a"}, "11": {"b", "d"}, "12": {"c", "a"},
	"13": {"b", "c"}, "14": {"b", "a"}, "15": {"b", "d"}, "16": {"c", "a"},
	"17": {"b", "d"}, "18": {"d", "a"}, "19": {"a", "c"}, "20": {"b", "a"},
}

// StressScores 四维得分
type StressScores struct {
	A int `json:"a"`
	B int `json:"b"`
	C int `json:"c"`
	D int `json:"d"`
}

// ScoreStressAnswers 按计分表汇总答卷
// answers 键为 "01".."20"，值取 {甲,乙,A,B}；缺题跳过，非法选项报错
func ScoreStressAnswers(answers map[string]string) (StressScores, error) {
	var scores StressScores
	bump := func(dim string) {
		switch dim {
		case "a":
			scores.A++
		case "b":
			scores.B++
		case "c":
			scores.C++
		case "d":
			scores.D++
		}
	}
	for question, choice := range answers {
		dims, ok := stressDims[question]
		if !ok {
			return StressScores{}, errs.Validation("未知题号: %s", question)
		}
		switch choice {
		case "甲", "A", "a":
			bump(dims[0])
		case "乙", "B", "b":
			bump(dims[1])
		default:
			return StressScores{}, errs.Validation("题 %s 的选项非法: %s", question, choice)
		}
	}
	return scores, nil
}

// HealthService 会员与健康档案
type HealthService struct {
	memberRepo repository.MemberRepository
	healthRepo repository.HealthRepository
	sellSvc    *SellService
}

// NewHealthService 创建健康档案服务
func NewHealthService(memberRepo repository.MemberRepository,
	healthRepo repository.HealthRepository, sellSvc *SellService) *HealthService {
	return &HealthService{memberRepo: memberRepo, healthRepo: healthRepo, sellSvc: sellSvc}
}

// ==================== 会员 ====================

// CreateMember 新建会员
func (s *HealthService) CreateMember(ctx context.Context, member *model.Member) error {
	if member.Name == "" {
		return errs.Validation("会员姓名不能为空")
	}
	if member.IdentityType == "" {
		member.IdentityType = model.IdentityMember
	}
	return s.memberRepo.CreateMember(ctx, member)
}

// GetMember 会员详情
func (s *HealthService) GetMember(ctx context.Context, id int64) (*model.Member, error) {
	member, err := s.memberRepo.GetMember(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("会员不存在: %d", id)
		}
		return nil, err
	}
	return member, nil
}

// UpdateMember 更新会员
func (s *HealthService) UpdateMember(ctx context.Context, id int64, fields map[string]interface{}) (*model.Member, error) {
	member, err := s.GetMember(ctx, id)
	if err != nil {
		return nil, err
	}
	delete(fields, "id")
	if name, ok := fields["name"].(string); ok && name == "" {
		return nil, errs.Validation("会员姓名不能为空")
	}
	if err := s.applyMemberFields(member, fields); err != nil {
		return nil, err
	}
	if err := s.memberRepo.UpdateMember(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *HealthService) applyMemberFields(member *model.Member, fields map[string]interface{}) error {
	for key, value := range fields {
		switch key {
		case "name":
			member.Name, _ = value.(string)
		case "phone":
			member.Phone, _ = value.(string)
		case "gender":
			member.Gender, _ = value.(string)
		case "birthday":
			raw, _ := value.(string)
			if raw == "" {
				member.Birthday = nil
				continue
			}
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return errs.Validation("生日格式非法: %s", raw)
			}
			member.Birthday = &t
		case "store_id":
			switch v := value.(type) {
			case float64:
				member.StoreID = int64(v)
			case int64:
				member.StoreID = v
			}
		case "identity_type":
			member.IdentityType, _ = value.(string)
		case "note":
			member.Note, _ = value.(string)
		}
	}
	return nil
}

// DeleteMember 删除会员
func (s *HealthService) DeleteMember(ctx context.Context, id int64) error {
	if _, err := s.GetMember(ctx, id); err != nil {
		return err
	}
	return s.memberRepo.DeleteMember(ctx, id)
}

// ListMembers 会员列表
func (s *HealthService) ListMembers(ctx context.Context, storeID int64, keyword string, page, pageSize int) ([]model.Member, int64, error) {
	return s.memberRepo.ListMembers(ctx, storeID, keyword, page, pageSize)
}

// ==================== 病史档案 ====================

// AddMedicalRecord 记一条病史
func (s *HealthService) AddMedicalRecord(ctx context.Context, record *model.MedicalRecord) error {
	if _, err := s.GetMember(ctx, record.MemberID); err != nil {
		return err
	}
	if record.RecordDate.IsZero() {
		record.RecordDate = time.Now()
	}
	return s.healthRepo.CreateMedicalRecord(ctx, record)
}

// UpdateMedicalRecord 改病史内容
func (s *HealthService) UpdateMedicalRecord(ctx context.Context, id int64, content string) error {
	record, err := s.healthRepo.GetMedicalRecord(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("病史档案不存在: %d", id)
		}
		return err
	}
	record.Content = content
	return s.healthRepo.UpdateMedicalRecord(ctx, record)
}

// DeleteMedicalRecord 删病史
func (s *HealthService) DeleteMedicalRecord(ctx context.Context, id int64) error {
	if _, err := s.healthRepo.GetMedicalRecord(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("病史档案不存在: %d", id)
		}
		return err
	}
	return s.healthRepo.DeleteMedicalRecord(ctx, id)
}

// ListMedicalRecords 病史列表
func (s *HealthService) ListMedicalRecords(ctx context.Context, memberID int64, page, pageSize int) ([]model.MedicalRecord, int64, error) {
	return s.healthRepo.ListMedicalRecords(ctx, memberID, page, pageSize)
}

// ==================== 纯净健康记录 ====================

// AddPureHealthRecord 记一条纯净健康记录
func (s *HealthService) AddPureHealthRecord(ctx context.Context, record *model.PureHealthRecord) error {
	if _, err := s.GetMember(ctx, record.MemberID); err != nil {
		return err
	}
	if record.RecordDate.IsZero() {
		record.RecordDate = time.Now()
	}
	return s.healthRepo.CreatePureHealthRecord(ctx, record)
}

// ListPureHealthRecords 纯净健康记录列表
func (s *HealthService) ListPureHealthRecords(ctx context.Context, memberID int64, page, pageSize int) ([]model.PureHealthRecord, int64, error) {
	return s.healthRepo.ListPureHealthRecords(ctx, memberID, page, pageSize)
}

// DeletePureHealthRecord 删纯净健康记录
func (s *HealthService) DeletePureHealthRecord(ctx context.Context, id int64) error {
	return s.healthRepo.DeletePureHealthRecord(ctx, id)
}

// ==================== 压力测试 ====================

// SubmitStressTest 提交答卷，计分后落库
func (s *HealthService) SubmitStressTest(ctx context.Context, memberID int64, staffID *int64,
	storeID int64, answers map[string]string) (*model.StressTest, error) {
	if _, err := s.GetMember(ctx, memberID); err != nil {
		return nil, err
	}
	scores, err := ScoreStressAnswers(answers)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("序列化答卷失败: %w", err)
	}

	test := &model.StressTest{
		MemberID: memberID,
		StaffID:  staffID,
		StoreID:  storeID,
		TestDate: time.Now(),
		Answers:  datatypes.JSON(payload),
		ScoreA:   scores.A,
		ScoreB:   scores.B,
		ScoreC:   scores.C,
		ScoreD:   scores.D,
	}
	if err := s.healthRepo.CreateStressTest(ctx, test); err != nil {
		return nil, err
	}
	return test, nil
}

// ListStressTests 历次答卷
func (s *HealthService) ListStressTests(ctx context.Context, memberID int64) ([]model.StressTest, error) {
	return s.healthRepo.ListStressTests(ctx, memberID)
}

// ==================== 疗程消耗 ====================

// AddTherapyRecord 记一次疗程消耗，随后剩余次数按购买减消耗得出
func (s *HealthService) AddTherapyRecord(ctx context.Context, record *model.TherapyRecord) error {
	if _, err := s.GetMember(ctx, record.MemberID); err != nil {
		return err
	}
	if record.DeductSessions <= 0 {
		return errs.Validation("扣减次数必须为正")
	}
	if record.RecordDate.IsZero() {
		record.RecordDate = time.Now()
	}
	rows, err := s.sellSvc.RemainingSessions(ctx, record.MemberID)
	if err != nil {
		return err
	}
	var remaining int
	for _, row := range rows {
		if row.TherapyID == record.TherapyID {
			remaining = row.Remaining
			break
		}
	}
	if remaining < record.DeductSessions {
		return errs.Validation("疗程 %d 剩余次数不足: 剩 %d，需扣 %d",
			record.TherapyID, remaining, record.DeductSessions)
	}
	return s.healthRepo.CreateTherapyRecord(ctx, record)
}

// ListTherapyRecords 疗程消耗列表
func (s *HealthService) ListTherapyRecords(ctx context.Context, memberID int64) ([]model.TherapyRecord, error) {
	return s.healthRepo.ListTherapyRecords(ctx, memberID)
}

// ==================== 门店 ====================

// ListStores 门店列表
func (s *HealthService) ListStores(ctx context.Context) ([]model.Store, error) {
	return s.memberRepo.ListStores(ctx)
}
