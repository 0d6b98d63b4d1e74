package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/wfunc/door-bridge/internal/errors"
	"github.com/wfunc/door-bridge/internal/hardware"
	"github.com/wfunc/door-bridge/internal/models"
	"github.com/wfunc/door-bridge/internal/repository"
	"go.uber.org/zap"
)

// DoorHandler 门禁处理器
type DoorHandler struct {
	controller hardware.DoorController
	cmdLogRepo *repository.CommandLogRepository
	log        *zap.Logger
}

// NewDoorHandler 创建门禁处理器
func NewDoorHandler(controller hardware.DoorController, cmdLogRepo *repository.CommandLogRepository, log *zap.Logger) *DoorHandler {
	return &DoorHandler{
		controller: controller,
		cmdLogRepo: cmdLogRepo,
		log:        log,
	}
}

// Open 处理开门请求
// 不消费请求体；每次调用对应一次硬件写入。
// 成功: 200 {"status":"success"}
// 写入失败: 503 {"status":"error","message":...}，服务保持可用
func (h *DoorHandler) Open(c *gin.Context) {
	requestID := uuid.NewString()
	start := time.Now()

	err := h.controller.OpenDoor()
	duration := time.Since(start)

	h.audit(requestID, c.ClientIP(), err, duration)

	if err != nil {
		appErr := toAppError(err)
		h.log.Error("开门命令失败",
			zap.String("request_id", requestID),
			zap.Error(appErr),
		)
		c.JSON(appErr.HTTPStatus(), gin.H{
			"status":  "error",
			"message": appErr.Message,
		})
		return
	}

	h.log.Info("开门命令成功",
		zap.String("request_id", requestID),
		zap.Duration("duration", duration),
	)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// audit 记录命令审计日志
// 审计失败只记警告，不影响路由响应。
func (h *DoorHandler) audit(requestID, clientIP string, cmdErr error, duration time.Duration) {
	if h.cmdLogRepo == nil {
		return
	}

	entry := &models.CommandLog{
		RequestID:  requestID,
		ClientIP:   clientIP,
		Command:    fmt.Sprintf("0x%02X", byte(hardware.CmdOpenDoor)),
		BytesCount: 1,
		Result:     models.CommandResultSuccess,
		Duration:   duration.Milliseconds(),
	}
	if cmdErr != nil {
		entry.Result = models.CommandResultFailed
		entry.ErrorMsg = cmdErr.Error()
		entry.BytesCount = 0
	}

	if err := h.cmdLogRepo.Create(entry); err != nil {
		h.log.Warn("写入命令审计日志失败",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
	}
}

// toAppError 转换为应用错误
func toAppError(err error) *apperrors.AppError {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr
	}
	return apperrors.Wrap(err, apperrors.ErrCommandFailed)
}
