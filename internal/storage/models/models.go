package models

import "time"

// AuditRecord 写类操作审计
type AuditRecord struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RequestID string    `gorm:"column:request_id" json:"request_id,omitempty"`
	Property  string    `gorm:"column:property" json:"property"`
	Op        string    `gorm:"column:op" json:"op"`
	Value     string    `gorm:"column:value" json:"value,omitempty"`
	Result    string    `gorm:"column:result" json:"result"`
	Error     string    `gorm:"column:error" json:"error,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName 表名
func (AuditRecord) TableName() string { return "audit_log" }
