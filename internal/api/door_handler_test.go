package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/door-bridge/internal/hardware"
	"github.com/wfunc/door-bridge/internal/models"
	"github.com/wfunc/door-bridge/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestRouter 创建带模拟控制器的测试路由
func setupTestRouter(t *testing.T, withDB bool) (*Router, *hardware.MockController, *gorm.DB) {
	ctrl := hardware.NewMockController()
	require.NoError(t, ctrl.Connect())

	var db *gorm.DB
	if withDB {
		db = repository.SetupTestDB()
		t.Cleanup(func() { repository.CleanupTestDB(db) })
	}

	router := NewRouter(ctrl, db, zap.NewNop())
	return router, ctrl, db
}

func doOpen(router *Router) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/open", nil)
	router.GetEngine().ServeHTTP(w, req)
	return w
}

// 测试开门成功：200 + 固定响应体 + 恰好一次硬件写入
func TestDoorHandler_Open(t *testing.T) {
	router, ctrl, _ := setupTestRouter(t, true)

	w := doOpen(router)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success"}`, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	// 恰好写入一个0x4F字节
	assert.Equal(t, []byte{0x4F}, ctrl.Written())
}

// 测试N次调用响应相同，产生N次写入（幂等）
func TestDoorHandler_OpenRepeated(t *testing.T) {
	router, ctrl, _ := setupTestRouter(t, false)

	const n = 5
	for i := 0; i < n; i++ {
		w := doOpen(router)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"success"}`, w.Body.String())
	}

	written := ctrl.Written()
	assert.Len(t, written, n)
	for _, b := range written {
		assert.Equal(t, byte(0x4F), b)
	}
}

// 测试写入失败：503错误响应，服务保持可用
func TestDoorHandler_OpenWriteFailure(t *testing.T) {
	router, ctrl, _ := setupTestRouter(t, true)

	ctrl.SetWriteError(errors.New("device disconnected"))

	w := doOpen(router)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"error"`)
	assert.Contains(t, w.Body.String(), "串口写入失败")

	// 故障恢复后服务继续工作
	ctrl.SetWriteError(nil)
	w = doOpen(router)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success"}`, w.Body.String())
}

// 测试每次调用写入一条审计日志
func TestDoorHandler_AuditLog(t *testing.T) {
	router, ctrl, db := setupTestRouter(t, true)
	repo := repository.NewCommandLogRepository(db)

	// 成功请求
	doOpen(router)

	logs, err := repo.Recent(10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "0x4F", logs[0].Command)
	assert.Equal(t, 1, logs[0].BytesCount)
	assert.Equal(t, models.CommandResultSuccess, logs[0].Result)
	assert.NotEmpty(t, logs[0].RequestID)

	// 失败请求
	ctrl.SetWriteError(errors.New("write failed"))
	doOpen(router)

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalCount)
	assert.Equal(t, int64(1), stats.TotalSuccess)
	assert.Equal(t, int64(1), stats.TotalFailed)
}

// 测试审计日志不可用时路由行为不变
func TestDoorHandler_OpenWithoutDB(t *testing.T) {
	router, ctrl, _ := setupTestRouter(t, false)

	w := doOpen(router)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success"}`, w.Body.String())
	assert.Equal(t, []byte{0x4F}, ctrl.Written())
}

// 测试100个并发请求：全部成功，恰好100次写入
func TestDoorHandler_ConcurrentRequests(t *testing.T) {
	router, ctrl, _ := setupTestRouter(t, false)

	const n = 100
	var wg sync.WaitGroup
	codes := make(chan int, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := doOpen(router)
			codes <- w.Code
		}()
	}
	wg.Wait()
	close(codes)

	for code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}

	// 恰好100个完整的0x4F字节，没有合并或交错的写入
	written := ctrl.Written()
	assert.Len(t, written, n)
	for _, b := range written {
		assert.Equal(t, byte(0x4F), b)
	}
}

// 测试设备离线时的错误响应
func TestDoorHandler_DeviceOffline(t *testing.T) {
	ctrl := hardware.NewMockController()
	// 不连接
	router := NewRouter(ctrl, nil, zap.NewNop())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/open", nil)
	router.GetEngine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"error"`)
}
