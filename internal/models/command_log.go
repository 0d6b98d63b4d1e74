package models

import (
	"time"

	"gorm.io/gorm"
)

// CommandResult 命令执行结果
type CommandResult string

const (
	CommandResultSuccess CommandResult = "SUCCESS" // 写入成功
	CommandResultFailed  CommandResult = "FAILED"  // 写入失败
)

// CommandLog 开门命令审计日志
// 每次 POST /open 写入一条记录；审计失败不影响路由响应。
type CommandLog struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `gorm:"index;not null" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// 请求信息
	RequestID string `gorm:"type:varchar(100);index" json:"request_id"` // 请求ID
	ClientIP  string `gorm:"type:varchar(64)" json:"client_ip"`         // 客户端IP

	// 命令内容
	Command    string `gorm:"type:varchar(10);index;not null" json:"command"` // 命令字节（十六进制, 如 "0x4F"）
	BytesCount int    `gorm:"default:0" json:"bytes_count"`                   // 实际写入字节数

	// 执行结果
	Result   CommandResult `gorm:"type:varchar(10);index;not null" json:"result"` // 执行结果
	ErrorMsg string        `gorm:"type:text" json:"error_msg,omitempty"`          // 错误信息

	// 性能指标
	Duration  int64 `gorm:"default:0" json:"duration,omitempty"` // 处理时长（毫秒）
	Timestamp int64 `gorm:"index" json:"timestamp"`              // Unix时间戳（毫秒）
}

// TableName 指定表名
func (CommandLog) TableName() string {
	return "command_logs"
}

// BeforeCreate 创建前的钩子
func (c *CommandLog) BeforeCreate(tx *gorm.DB) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.Timestamp == 0 {
		c.Timestamp = time.Now().UnixMilli()
	}
	return nil
}

// CommandLogQuery 查询参数
type CommandLogQuery struct {
	RequestID string        `json:"request_id,omitempty"`
	Result    CommandResult `json:"result,omitempty"`
	StartTime *time.Time    `json:"start_time,omitempty"`
	EndTime   *time.Time    `json:"end_time,omitempty"`
	Limit     int           `json:"limit,omitempty"`
	Offset    int           `json:"offset,omitempty"`
}

// CommandLogStats 统计信息
type CommandLogStats struct {
	TotalCount   int64 `json:"total_count"`
	TotalSuccess int64 `json:"total_success"`
	TotalFailed  int64 `json:"total_failed"`
}
