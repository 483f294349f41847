package dto

// ==================== 会员 ====================

// SaveMemberReq 创建/更新会员请求
type SaveMemberReq struct {
	Name         string `json:"name" binding:"required,max=100"`
	Phone        string `json:"phone" binding:"max=50"`
	Gender       string `json:"gender" binding:"max=10"`
	Birthday     string `json:"birthday"` // YYYY-MM-DD
	IdentityType string `json:"identity_type" binding:"max=30"`
	Note         string `json:"note" binding:"max=500"`
}

// ==================== 健康档案 ====================

// AddMedicalRecordReq 记病史请求
type AddMedicalRecordReq struct {
	MemberID   int64  `json:"member_id" binding:"required"`
	RecordDate string `json:"record_date"`
	Content    string `json:"content" binding:"required"`
}

// UpdateMedicalRecordReq 改病史请求
type UpdateMedicalRecordReq struct {
	Content string `json:"content" binding:"required"`
}

// AddPureHealthRecordReq 纯净健康记录请求
type AddPureHealthRecordReq struct {
	MemberID   int64  `json:"member_id" binding:"required"`
	RecordDate string `json:"record_date"`
	Item       string `json:"item" binding:"required,max=255"`
	Result     string `json:"result" binding:"max=500"`
	Note       string `json:"note" binding:"max=500"`
}

// ==================== 压力测试 ====================

// SubmitStressTestReq 提交答卷请求
// 答卷键 "01".."20"，值取 {甲,乙,A,B}
type SubmitStressTestReq struct {
	MemberID int64             `json:"member_id" binding:"required"`
	Answers  map[string]string `json:"answers" binding:"required"`
}

// ==================== 疗程消耗 ====================

// AddTherapyRecordReq 记一次疗程消耗请求
type AddTherapyRecordReq struct {
	MemberID       int64  `json:"member_id" binding:"required"`
	TherapyID      int64  `json:"therapy_id" binding:"required"`
	RecordDate     string `json:"record_date"`
	DeductSessions int    `json:"deduct_sessions" binding:"required,gte=1"`
	Note           string `json:"note" binding:"max=500"`
}
