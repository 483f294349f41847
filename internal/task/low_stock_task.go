package task

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/repository"
	"wellness_erp_v1_202609/internal/service"
	"wellness_erp_v1_202609/pkg/logger"
)

// ==================== LowStockMonitor 低库存巡检任务 ====================

// LowStockMonitor 周期性扫描主商品库存，低于阈值时写告警日志
// 阈值与调度表达式来自配置，门店端每日开店前可据此补货
type LowStockMonitor struct {
	stockService *service.StockService
	masterRepo   repository.MasterRepository
	Cron         *cron.Cron

	threshold int
	spec      string
}

func NewLowStockMonitor(stockService *service.StockService, masterRepo repository.MasterRepository, spec string, threshold int) *LowStockMonitor {
	if spec == "" {
		spec = "0 7 * * *" // 每天早上 7 点
	}
	if threshold <= 0 {
		threshold = 5
	}
	return &LowStockMonitor{
		stockService: stockService,
		masterRepo:   masterRepo,
		Cron:         cron.New(),
		threshold:    threshold,
		spec:         spec,
	}
}

// Start 注册并启动定时巡检
func (m *LowStockMonitor) Start() error {
	_, err := m.Cron.AddFunc(m.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		m.Execute(ctx)
	})
	if err != nil {
		return err
	}

	m.Cron.Start()
	logger.L.Info("低库存巡检任务已启动",
		zap.String("cron", m.spec),
		zap.Int("threshold", m.threshold))
	return nil
}

// Stop 停止调度，等待正在执行的巡检结束
func (m *LowStockMonitor) Stop() {
	ctx := m.Cron.Stop()
	<-ctx.Done()
}

// Execute 执行一次完整巡检 (由 Cron 定时触发)
func (m *LowStockMonitor) Execute(ctx context.Context) {
	stocks, err := m.stockService.LowStocks(ctx, m.threshold)
	if err != nil {
		logger.L.Error("低库存巡检失败", zap.Error(err))
		return
	}
	if len(stocks) == 0 {
		logger.L.Info("低库存巡检完成，无告警", zap.Int("threshold", m.threshold))
		return
	}

	for _, stock := range stocks {
		select {
		case <-ctx.Done():
			logger.L.Warn("低库存巡检超时中止")
			return
		default:
		}
		m.warn(ctx, stock)
	}
	logger.L.Info("低库存巡检完成",
		zap.Int("threshold", m.threshold),
		zap.Int("alerts", len(stocks)))
}

func (m *LowStockMonitor) warn(ctx context.Context, stock model.MasterStock) {
	fields := []zap.Field{
		zap.Int64("master_id", stock.MasterID),
		zap.Int64("store_id", stock.StoreID),
		zap.Int("on_hand", stock.QuantityOnHand),
		zap.Int("threshold", m.threshold),
	}
	if master, err := m.masterRepo.GetMasterByID(ctx, stock.MasterID); err == nil {
		fields = append(fields,
			zap.String("code", master.Code),
			zap.String("name", master.Name))
	}
	logger.L.Warn("主商品库存低于阈值", fields...)
}
