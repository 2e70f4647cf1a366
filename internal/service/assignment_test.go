package service_test

import (
	"context"
	"testing"

	"github.com/stanondieki/Infera-AI-sub003/internal/service"
	"github.com/stanondieki/Infera-AI-sub003/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAssign_Idempotent 测试重复分配相同集合只更新 updatedAt
func TestAssign_Idempotent(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	tsk := f.createAnnotation(t, "Label street scenes")

	first, err := f.tasks.Assign(ctx, admin, tsk.ID, []string{u1, u2, u1, " "})
	require.NoError(t, err)
	assert.Equal(t, []string{u1, u2}, first.AssignedTo)

	history, err := f.query.History(ctx, tsk.ID)
	require.NoError(t, err)
	audits, err := f.auditRepo.FindByResource(ctx, "task", tsk.ID)
	require.NoError(t, err)
	events := f.notifier.count()

	second, err := f.tasks.Assign(ctx, admin, tsk.ID, []string{u2, u1})
	require.NoError(t, err)
	assert.Equal(t, []string{u1, u2}, second.AssignedTo)
	assert.Equal(t, task.StatusAssigned, second.Status)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	historyAfter, err := f.query.History(ctx, tsk.ID)
	require.NoError(t, err)
	auditsAfter, err := f.auditRepo.FindByResource(ctx, "task", tsk.ID)
	require.NoError(t, err)
	assert.Len(t, historyAfter, len(history))
	assert.Len(t, auditsAfter, len(audits))
	assert.Equal(t, events, f.notifier.count())

	stored, err := f.query.Get(ctx, tsk.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{u1, u2}, stored.AssignedTo)
	assert.Equal(t, second.Version, stored.Version)
}

// TestAssign_EmptySetMakesAvailable 测试空集合分配回到 AVAILABLE
func TestAssign_EmptySetMakesAvailable(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	tsk := f.createAnnotation(t, "Label street scenes")

	tsk, err := f.tasks.Assign(ctx, admin, tsk.ID, []string{u1})
	require.NoError(t, err)
	assert.Equal(t, task.StatusAssigned, tsk.Status)

	tsk, err = f.tasks.Assign(ctx, admin, tsk.ID, []string{u3})
	require.NoError(t, err)
	assert.Equal(t, task.StatusAssigned, tsk.Status)
	assert.Equal(t, []string{u3}, tsk.AssignedTo)

	tsk, err = f.tasks.Assign(ctx, admin, tsk.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, task.StatusAvailable, tsk.Status)
	assert.Empty(t, tsk.AssignedTo)
	assert.Equal(t, service.EventTaskUnassigned, f.notifier.last().Type)
	assert.Equal(t, []string{u3}, f.notifier.last().Recipients)

	// 已经是空集合
	tsk, err = f.tasks.Unassign(ctx, admin, tsk.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusAvailable, tsk.Status)

	f.assertInvariants(t)
}

// TestAssign_Errors 测试分配的错误分支
func TestAssign_Errors(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	_, err := f.tasks.Assign(ctx, admin, "missing", []string{u1})
	assert.True(t, task.IsKind(err, task.KindNotFound))

	tsk := f.createAnnotation(t, "Label street scenes")
	_, err = f.tasks.Assign(ctx, admin, tsk.ID, []string{"nobody"})
	assert.True(t, task.IsKind(err, task.KindNotFound))

	_, err = f.tasks.Assign(ctx, admin, tsk.ID, []string{idle})
	require.Error(t, err)
	assert.True(t, task.IsKind(err, task.KindValidation))

	stored, err := f.query.Get(ctx, tsk.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusAvailable, stored.Status)

	submitted := f.submitted(t, u1, 1)
	_, err = f.tasks.Assign(ctx, admin, submitted.ID, []string{u2})
	assert.True(t, task.IsKind(err, task.KindInvalidState))
	_, err = f.tasks.Unassign(ctx, admin, submitted.ID)
	assert.True(t, task.IsKind(err, task.KindInvalidState))
}

// TestStart_FirstToStartClaims 测试多人候选时第一个开始的人认领任务
func TestStart_FirstToStartClaims(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	tsk := f.createAnnotation(t, "Label street scenes")
	_, err := f.tasks.Assign(ctx, admin, tsk.ID, []string{u1, u2})
	require.NoError(t, err)

	_, err = f.tasks.Start(ctx, u3, tsk.ID)
	assert.True(t, task.IsKind(err, task.KindForbidden))

	started, err := f.tasks.Start(ctx, u2, tsk.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusInProgress, started.Status)
	assert.Equal(t, []string{u2}, started.AssignedTo)
	require.NotNil(t, started.StartedAt)
	assert.Equal(t, []string{u1}, f.notifier.last().Recipients)

	// 被移除的候选人不能再开始或提交
	_, err = f.tasks.Start(ctx, u1, tsk.ID)
	assert.True(t, task.IsKind(err, task.KindForbidden))
	_, err = f.tasks.Submit(ctx, u1, tsk.ID, &service.SubmitPayload{Deliverables: []string{"x"}, ActualHours: 1})
	assert.True(t, task.IsKind(err, task.KindForbidden))

	// 重复开始
	_, err = f.tasks.Start(ctx, u2, tsk.ID)
	assert.True(t, task.IsKind(err, task.KindInvalidState))

	_, err = f.tasks.Unassign(ctx, admin, tsk.ID)
	assert.True(t, task.IsKind(err, task.KindInvalidState))

	submitted, err := f.tasks.Submit(ctx, u2, tsk.ID, &service.SubmitPayload{Deliverables: []string{"s3://out.json"}, ActualHours: 1.25})
	require.NoError(t, err)
	assert.Equal(t, task.StatusUnderReview, submitted.Status)

	f.assertInvariants(t)
}

// TestSubmit_CheckOrder 测试提交的校验顺序
func TestSubmit_CheckOrder(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	valid := &service.SubmitPayload{Deliverables: []string{"s3://out.json"}, ActualHours: 1}

	_, err := f.tasks.Submit(ctx, u1, "missing", valid)
	assert.True(t, task.IsKind(err, task.KindNotFound))

	// AVAILABLE 的任务没有分配人,先报 Forbidden
	tsk := f.createAnnotation(t, "Label street scenes")
	_, err = f.tasks.Submit(ctx, u1, tsk.ID, &service.SubmitPayload{})
	assert.True(t, task.IsKind(err, task.KindForbidden))

	_, err = f.tasks.Assign(ctx, admin, tsk.ID, []string{u1})
	require.NoError(t, err)

	_, err = f.tasks.Submit(ctx, u1, tsk.ID, &service.SubmitPayload{Deliverables: []string{"s3://out.json"}, ActualHours: 0})
	require.Error(t, err)
	assert.True(t, task.IsKind(err, task.KindValidation))
	assert.Contains(t, err.Error(), "actual_hours")

	_, err = f.tasks.Submit(ctx, u1, tsk.ID, &service.SubmitPayload{Deliverables: []string{" "}, ActualHours: 2})
	require.Error(t, err)
	assert.True(t, task.IsKind(err, task.KindValidation))
	assert.Contains(t, err.Error(), "deliverables")

	_, err = f.tasks.Submit(ctx, u1, tsk.ID, valid)
	require.NoError(t, err)

	// 已提交,状态错误优先于内容错误
	_, err = f.tasks.Submit(ctx, u1, tsk.ID, &service.SubmitPayload{})
	assert.True(t, task.IsKind(err, task.KindInvalidState))
}
