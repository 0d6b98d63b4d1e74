package repository

import (
	"time"

	"github.com/wfunc/door-bridge/internal/models"
	"gorm.io/gorm"
)

// CommandLogRepository 命令审计日志仓库
type CommandLogRepository struct {
	db *gorm.DB
}

// NewCommandLogRepository 创建命令审计日志仓库
func NewCommandLogRepository(db *gorm.DB) *CommandLogRepository {
	return &CommandLogRepository{
		db: db,
	}
}

// Create 创建日志记录
func (r *CommandLogRepository) Create(log *models.CommandLog) error {
	return r.db.Create(log).Error
}

// GetByID 根据ID获取日志
func (r *CommandLogRepository) GetByID(id uint) (*models.CommandLog, error) {
	var log models.CommandLog
	err := r.db.First(&log, id).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// GetByRequestID 根据请求ID获取日志
func (r *CommandLogRepository) GetByRequestID(requestID string) (*models.CommandLog, error) {
	var log models.CommandLog
	err := r.db.Where("request_id = ?", requestID).First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// Query 查询日志
func (r *CommandLogRepository) Query(query *models.CommandLogQuery) ([]*models.CommandLog, int64, error) {
	db := r.db.Model(&models.CommandLog{})

	// 构建查询条件
	if query.RequestID != "" {
		db = db.Where("request_id = ?", query.RequestID)
	}
	if query.Result != "" {
		db = db.Where("result = ?", query.Result)
	}
	if query.StartTime != nil {
		db = db.Where("created_at >= ?", *query.StartTime)
	}
	if query.EndTime != nil {
		db = db.Where("created_at <= ?", *query.EndTime)
	}

	// 获取总数
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页
	limit := query.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	db = db.Order("created_at DESC").Limit(limit).Offset(query.Offset)

	var logs []*models.CommandLog
	if err := db.Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// Recent 获取最近的日志
func (r *CommandLogRepository) Recent(limit int) ([]*models.CommandLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var logs []*models.CommandLog
	err := r.db.Order("created_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

// CountSince 统计指定时间之后的命令数
func (r *CommandLogRepository) CountSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.CommandLog{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

// GetStats 获取统计信息
func (r *CommandLogRepository) GetStats() (*models.CommandLogStats, error) {
	stats := &models.CommandLogStats{}

	if err := r.db.Model(&models.CommandLog{}).Count(&stats.TotalCount).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.CommandLog{}).
		Where("result = ?", models.CommandResultSuccess).
		Count(&stats.TotalSuccess).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.CommandLog{}).
		Where("result = ?", models.CommandResultFailed).
		Count(&stats.TotalFailed).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// Purge 清理指定时间之前的日志
func (r *CommandLogRepository) Purge(before time.Time) (int64, error) {
	result := r.db.Unscoped().
		Where("created_at < ?", before).
		Delete(&models.CommandLog{})
	return result.RowsAffected, result.Error
}
