package gormrepo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/taoyao-code/monitorctl/internal/monitor"
	"github.com/taoyao-code/monitorctl/internal/storage/models"
)

// Open 基于已有 pgx 连接池打开 gorm
func Open(pool *pgxpool.Pool) (*gorm.DB, error) {
	sqlDB := stdlib.OpenDBFromPool(pool)
	return gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// AuditRepository 审计记录仓库，实现 monitor.Recorder
type AuditRepository struct {
	db *gorm.DB
}

// New 返回使用给定 *gorm.DB 的仓库
func New(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record 写入一条审计
func (r *AuditRepository) Record(ctx context.Context, e monitor.AuditEntry) error {
	rec := &models.AuditRecord{
		RequestID: e.RequestID,
		Property:  e.Property,
		Op:        e.Op,
		Value:     e.Value,
		Result:    e.Result,
		Error:     e.Error,
		CreatedAt: e.At,
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

// AuditFilter 查询条件
type AuditFilter struct {
	Property string
	Limit    int
	Offset   int
}

// List 按时间倒序返回审计记录
func (r *AuditRepository) List(ctx context.Context, f AuditFilter) ([]models.AuditRecord, error) {
	var out []models.AuditRecord
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if f.Property != "" {
		q = q.Where("property = ?", f.Property)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	q = q.Limit(limit)
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Ping 健康检查
func (r *AuditRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
