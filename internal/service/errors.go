package service

import (
	"errors"

	"github.com/stanondieki/Infera-AI-sub003/internal/metrics"
	"github.com/stanondieki/Infera-AI-sub003/internal/repository"
	"github.com/stanondieki/Infera-AI-sub003/internal/task"
)

// ConcurrentModificationMessage 版本号比较失败时返回给调用方的信息
const ConcurrentModificationMessage = "task was modified concurrently, reload and retry"

// mapStoreError 把乐观锁冲突转换为 InvalidState,其他错误原样返回
func mapStoreError(err error) error {
	if errors.Is(err, repository.ErrOptimisticLock) {
		metrics.RecordConflict()
		return task.NewInvalidState(ConcurrentModificationMessage)
	}
	return err
}
