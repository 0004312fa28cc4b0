package app

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taoyao-code/monitorctl/internal/health"
)

// NewHealthAggregator 创建健康检查聚合器，初始只有串口检查
func NewHealthAggregator(device health.DevicePresence) *health.Aggregator {
	return health.NewAggregator(health.NewSerialChecker(device))
}

// AddDatabaseChecker 添加数据库检查器
func AddDatabaseChecker(aggregator *health.Aggregator, dbpool *pgxpool.Pool) {
	if dbpool != nil {
		aggregator.AddChecker(health.NewDatabaseChecker(dbpool))
	}
}

// RegisterHealthRoutes 注册健康检查HTTP路由
func RegisterHealthRoutes(r *gin.Engine, aggregator *health.Aggregator) {
	health.RegisterHTTPRoutes(r, aggregator)
}
