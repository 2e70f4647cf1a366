package utils_test

import (
	"testing"

	"github.com/stanondieki/Infera-AI-sub003/internal/utils"
	"github.com/stretchr/testify/assert"
)

// TestValidateTaskID 测试任务 ID 校验
func TestValidateTaskID(t *testing.T) {
	assert.NoError(t, utils.ValidateTaskID("3f2a9c1e-7b2d-4c55-9a10-1d2e3f4a5b6c"))
	assert.Equal(t, utils.ErrEmptyID, utils.ValidateTaskID(""))
	assert.Equal(t, utils.ErrInvalidIDFormat, utils.ValidateTaskID("task'; DROP TABLE tasks"))
	assert.Equal(t, utils.ErrIDTooLong, utils.ValidateTaskID(string(make([]byte, 65))))
	assert.NoError(t, utils.ValidateUserID("worker_01"))
}

// TestValidateSortField 测试排序字段白名单
func TestValidateSortField(t *testing.T) {
	assert.NoError(t, utils.ValidateSortField("created_at"))
	assert.NoError(t, utils.ValidateSortField("HOURLY_RATE"))
	assert.Error(t, utils.ValidateSortField(""))
	assert.Error(t, utils.ValidateSortField("data"))
	assert.Error(t, utils.ValidateSortField("created_at; DROP TABLE tasks"))
}

// TestSortOrder 测试排序方向
func TestSortOrder(t *testing.T) {
	assert.NoError(t, utils.ValidateSortOrder("asc"))
	assert.Error(t, utils.ValidateSortOrder("sideways"))
	assert.Equal(t, "DESC", utils.SanitizeSortOrder("bogus"))
	assert.Equal(t, "ASC", utils.SanitizeSortOrder(" asc "))
}

// TestLikePattern 测试 LIKE 模式转义
func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%street%", utils.LikePattern(" Street "))
	assert.Equal(t, `%100\%\_done%`, utils.LikePattern("100%_done"))
}

// TestDedupeIDs 测试 ID 去重
func TestDedupeIDs(t *testing.T) {
	assert.Equal(t, []string{"u1", "u2"}, utils.DedupeIDs([]string{"u1", " u2", "u1", "", "u2"}))
	assert.Empty(t, utils.DedupeIDs(nil))
}
