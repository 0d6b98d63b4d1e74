package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/door-bridge/internal/models"
)

// 测试创建命令日志
func TestCommandLogRepository_Create(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewCommandLogRepository(db)

	log := &models.CommandLog{
		RequestID:  "req-001",
		ClientIP:   "127.0.0.1",
		Command:    "0x4F",
		BytesCount: 1,
		Result:     models.CommandResultSuccess,
		Duration:   3,
	}
	require.NoError(t, repo.Create(log))
	assert.NotZero(t, log.ID)

	// BeforeCreate钩子应填充时间戳
	assert.False(t, log.CreatedAt.IsZero())
	assert.NotZero(t, log.Timestamp)

	got, err := repo.GetByID(log.ID)
	require.NoError(t, err)
	assert.Equal(t, "req-001", got.RequestID)
	assert.Equal(t, "0x4F", got.Command)
	assert.Equal(t, 1, got.BytesCount)
	assert.Equal(t, models.CommandResultSuccess, got.Result)
}

// 测试根据请求ID查询
func TestCommandLogRepository_GetByRequestID(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewCommandLogRepository(db)

	require.NoError(t, repo.Create(&models.CommandLog{
		RequestID: "req-abc",
		Command:   "0x4F",
		Result:    models.CommandResultFailed,
		ErrorMsg:  "串口写入失败",
	}))

	got, err := repo.GetByRequestID("req-abc")
	require.NoError(t, err)
	assert.Equal(t, models.CommandResultFailed, got.Result)
	assert.Equal(t, "串口写入失败", got.ErrorMsg)

	// 不存在的请求ID
	_, err = repo.GetByRequestID("req-missing")
	assert.Error(t, err)
}

// 测试条件查询与分页
func TestCommandLogRepository_Query(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewCommandLogRepository(db)

	for i := 0; i < 10; i++ {
		result := models.CommandResultSuccess
		if i%2 == 1 {
			result = models.CommandResultFailed
		}
		require.NoError(t, repo.Create(&models.CommandLog{
			RequestID: fmt.Sprintf("req-%03d", i),
			Command:   "0x4F",
			Result:    result,
		}))
	}

	// 按结果过滤
	logs, total, err := repo.Query(&models.CommandLogQuery{
		Result: models.CommandResultFailed,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, logs, 5)

	// 分页
	logs, total, err = repo.Query(&models.CommandLogQuery{
		Limit:  3,
		Offset: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
	assert.Len(t, logs, 3)

	// 按请求ID过滤
	logs, total, err = repo.Query(&models.CommandLogQuery{
		RequestID: "req-003",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, logs, 1)
	assert.Equal(t, "req-003", logs[0].RequestID)
}

// 测试最近日志
func TestCommandLogRepository_Recent(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewCommandLogRepository(db)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(&models.CommandLog{
			RequestID: fmt.Sprintf("req-%d", i),
			Command:   "0x4F",
			Result:    models.CommandResultSuccess,
		}))
	}

	logs, err := repo.Recent(3)
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}

// 测试时间统计
func TestCommandLogRepository_CountSince(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewCommandLogRepository(db)

	require.NoError(t, repo.Create(&models.CommandLog{
		RequestID: "req-old",
		Command:   "0x4F",
		Result:    models.CommandResultSuccess,
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}))
	require.NoError(t, repo.Create(&models.CommandLog{
		RequestID: "req-new",
		Command:   "0x4F",
		Result:    models.CommandResultSuccess,
	}))

	count, err := repo.CountSince(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

// 测试统计信息
func TestCommandLogRepository_GetStats(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewCommandLogRepository(db)

	for i := 0; i < 4; i++ {
		require.NoError(t, repo.Create(&models.CommandLog{
			RequestID: fmt.Sprintf("ok-%d", i),
			Command:   "0x4F",
			Result:    models.CommandResultSuccess,
		}))
	}
	require.NoError(t, repo.Create(&models.CommandLog{
		RequestID: "fail-0",
		Command:   "0x4F",
		Result:    models.CommandResultFailed,
	}))

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.TotalCount)
	assert.Equal(t, int64(4), stats.TotalSuccess)
	assert.Equal(t, int64(1), stats.TotalFailed)
}

// 测试日志清理
func TestCommandLogRepository_Purge(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewCommandLogRepository(db)

	require.NoError(t, repo.Create(&models.CommandLog{
		RequestID: "req-old",
		Command:   "0x4F",
		Result:    models.CommandResultSuccess,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}))
	require.NoError(t, repo.Create(&models.CommandLog{
		RequestID: "req-new",
		Command:   "0x4F",
		Result:    models.CommandResultSuccess,
	}))

	deleted, err := repo.Purge(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	logs, err := repo.Recent(10)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Equal(t, "req-new", logs[0].RequestID)
}
