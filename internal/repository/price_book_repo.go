package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"wellness_erp_v1_202609/internal/model"
)

// ==================== 接口定义 ====================

// PriceBookRepository 会员价格本仓储
type PriceBookRepository interface {
	CreateBook(ctx context.Context, book *model.MemberPriceBook) error
	GetBook(ctx context.Context, id int64) (*model.MemberPriceBook, error)
	GetBookByName(ctx context.Context, name string) (*model.MemberPriceBook, error)
	UpdateBook(ctx context.Context, book *model.MemberPriceBook) error
	ListBooks(ctx context.Context, identityType string, page, pageSize int) ([]model.MemberPriceBook, int64, error)

	// 价格解析主查询: 身份生效、日期生效、门店范围匹配的条目
	// 排序 (book.priority ASC, item.min_quantity DESC, item.id ASC)
	FindCandidateItems(ctx context.Context, q CandidateQuery) ([]CandidateItem, error)

	// 导入用: 条目整组替换
	ReplaceBookItems(ctx context.Context, bookID int64, items []model.MemberPriceBookItem) error
	ReplaceBookStores(ctx context.Context, bookID int64, storeIDs []int64) error
	GetBookItems(ctx context.Context, bookID int64) ([]model.MemberPriceBookItem, error)

	WithTx(tx *gorm.DB) PriceBookRepository
}

// CandidateQuery 价格解析查询条件
type CandidateQuery struct {
	ItemType     string
	ItemIDs      []int64
	IdentityType string
	StoreID      int64
	Quantity     int
	Today        time.Time
}

// CandidateItem 候选价格行（带价格本优先级）
type CandidateItem struct {
	ItemID       int64   `json:"item_id"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	MinQuantity  int     `json:"min_quantity"`
	BookID       int64   `json:"book_id"`
	BookPriority int     `json:"book_priority"`
	BookItemID   int64   `json:"book_item_id"`
}

// ==================== 仓储实现 ====================

type priceBookRepo struct {
	db *gorm.DB
}

// NewPriceBookRepository 创建价格本仓储
func NewPriceBookRepository(db *gorm.DB) PriceBookRepository {
	return &priceBookRepo{db: db}
}

func (r *priceBookRepo) CreateBook(ctx context.Context, book *model.MemberPriceBook) error {
	return r.db.WithContext(ctx).Create(book).Error
}

func (r *priceBookRepo) GetBook(ctx context.Context, id int64) (*model.MemberPriceBook, error) {
	var book model.MemberPriceBook
	if err := r.db.WithContext(ctx).Preload("Items").Preload("Stores").First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *priceBookRepo) GetBookByName(ctx context.Context, name string) (*model.MemberPriceBook, error) {
	var book model.MemberPriceBook
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *priceBookRepo) UpdateBook(ctx context.Context, book *model.MemberPriceBook) error {
	return r.db.WithContext(ctx).Save(book).Error
}

func (r *priceBookRepo) ListBooks(ctx context.Context, identityType string, page, pageSize int) ([]model.MemberPriceBook, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 20
	}

	query := r.db.WithContext(ctx).Model(&model.MemberPriceBook{})
	if identityType != "" {
		query = query.Where("identity_type = ?", identityType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var books []model.MemberPriceBook
	err := query.Order("priority ASC, id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&books).Error
	return books, total, err
}

func (r *priceBookRepo) FindCandidateItems(ctx context.Context, q CandidateQuery) ([]CandidateItem, error) {
	today := q.Today.Format("2006-01-02")

	query := r.db.WithContext(ctx).
		Table("member_price_book_items AS i").
		Select(`i.item_id, i.price, i.currency, i.min_quantity,
			b.id AS book_id, b.priority AS book_priority, i.id AS book_item_id`).
		Joins("JOIN member_price_books AS b ON b.id = i.book_id").
		Where("b.status = ?", model.StatusActive).
		Where("b.identity_type = ?", q.IdentityType).
		Where("DATE(b.valid_from) <= ? AND DATE(b.valid_to) >= ?", today, today).
		Where("i.status = ?", model.StatusActive).
		Where("i.item_type = ?", q.ItemType).
		Where("i.item_id IN ?", q.ItemIDs)

	// 没有门店范围行的价格本全局生效
	if q.StoreID > 0 {
		query = query.Where(`NOT EXISTS (SELECT 1 FROM member_price_book_stores s WHERE s.book_id = b.id)
			OR EXISTS (SELECT 1 FROM member_price_book_stores s WHERE s.book_id = b.id AND s.store_id = ?)`, q.StoreID)
	} else {
		query = query.Where("NOT EXISTS (SELECT 1 FROM member_price_book_stores s WHERE s.book_id = b.id)")
	}

	if q.Quantity > 0 {
		query = query.Where("i.min_quantity <= ?", q.Quantity)
	}

	var rows []CandidateItem
	err := query.Order("b.priority ASC, i.min_quantity DESC, i.id ASC").Scan(&rows).Error
	return rows, err
}

func (r *priceBookRepo) ReplaceBookItems(ctx context.Context, bookID int64, items []model.MemberPriceBookItem) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("book_id = ?", bookID).Delete(&model.MemberPriceBookItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].BookID = bookID
	}
	return db.Create(&items).Error
}

func (r *priceBookRepo) ReplaceBookStores(ctx context.Context, bookID int64, storeIDs []int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("book_id = ?", bookID).Delete(&model.MemberPriceBookStore{}).Error; err != nil {
		return err
	}
	if len(storeIDs) == 0 {
		return nil
	}
	rows := make([]model.MemberPriceBookStore, 0, len(storeIDs))
	for _, id := range storeIDs {
		rows = append(rows, model.MemberPriceBookStore{BookID: bookID, StoreID: id})
	}
	return db.Create(&rows).Error
}

func (r *priceBookRepo) GetBookItems(ctx context.Context, bookID int64) ([]model.MemberPriceBookItem, error) {
	var items []model.MemberPriceBookItem
	err := r.db.WithContext(ctx).Where("book_id = ?", bookID).Order("id ASC").Find(&items).Error
	return items, err
}

func (r *priceBookRepo) WithTx(tx *gorm.DB) PriceBookRepository {
	return &priceBookRepo{db: tx}
}
