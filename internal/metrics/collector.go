package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/stanondieki/Infera-AI-sub003/internal/task"
	"gorm.io/gorm"
)

// StatusCounter 按状态统计任务数
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[task.Status]int64, error)
}

// Collector 指标收集器,按 cron 表达式定期刷新存量指标
type Collector struct {
	db       *gorm.DB
	counter  StatusCounter
	schedule string
	cron     *cron.Cron
}

// NewCollector 创建指标收集器
func NewCollector(db *gorm.DB, counter StatusCounter, schedule string) *Collector {
	if schedule == "" {
		schedule = "@every 1m"
	}
	return &Collector{
		db:       db,
		counter:  counter,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start 启动指标收集器,启动时先采集一次
func (c *Collector) Start() error {
	if _, err := c.cron.AddFunc(c.schedule, c.CollectOnce); err != nil {
		return fmt.Errorf("invalid metrics schedule %q: %w", c.schedule, err)
	}
	c.CollectOnce()
	c.cron.Start()
	return nil
}

// Stop 停止指标收集器,等待正在执行的采集结束
func (c *Collector) Stop() {
	<-c.cron.Stop().Done()
}

// CollectOnce 采集一次
func (c *Collector) CollectOnce() {
	if err := UpdateDatabaseConnections(c.db); err != nil {
		logrus.WithError(err).Debug("skip database connection metrics")
	}
	if c.counter == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	counts, err := c.counter.CountByStatus(ctx)
	if err != nil {
		logrus.WithError(err).Warn("failed to collect task status metrics")
		return
	}
	// 没有任务的状态也要归零
	for _, s := range task.Statuses {
		UpdateTasksByStatus(string(s), float64(counts[s]))
	}
}
