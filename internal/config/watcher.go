package config

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// ChangeFunc 配置变更回调,prev 是变更前生效的配置
type ChangeFunc func(prev, next *Config)

// ConfigWatcher 监听配置文件,校验通过的新配置才会生效
type ConfigWatcher struct {
	path    string
	v       *viper.Viper
	current atomic.Pointer[Config]
	stopped atomic.Bool

	mu        sync.Mutex
	callbacks []ChangeFunc
}

// NewConfigWatcher 创建配置监听器,cfg 为当前生效的配置
func NewConfigWatcher(cfg *Config, configPath string) *ConfigWatcher {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	bindEnv(v)

	w := &ConfigWatcher{path: configPath, v: v}
	w.current.Store(cfg)
	return w
}

// OnConfigChange 注册配置变更回调
func (w *ConfigWatcher) OnConfigChange(fn ChangeFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Start 开始监听
func (w *ConfigWatcher) Start() error {
	if err := w.v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	w.v.OnConfigChange(func(e fsnotify.Event) {
		if !w.stopped.Load() {
			w.reload(e.Name)
		}
	})
	w.v.WatchConfig()
	return nil
}

// reload 解析并校验新配置,非法配置保留旧值
func (w *ConfigWatcher) reload(file string) {
	log := logrus.WithField("file", file)

	next := new(Config)
	if err := w.v.Unmarshal(next); err != nil {
		log.WithError(err).Error("failed to unmarshal changed config")
		return
	}
	if err := next.Validate(); err != nil {
		log.WithError(err).Warn("ignoring invalid config change")
		return
	}
	prev := w.current.Swap(next)

	w.mu.Lock()
	callbacks := append([]ChangeFunc(nil), w.callbacks...)
	w.mu.Unlock()
	for _, fn := range callbacks {
		fn(prev, next)
	}
}

// Stop 停止响应文件变化,viper 的监听协程随进程退出
func (w *ConfigWatcher) Stop() {
	w.stopped.Store(true)
}

// GetConfig 当前生效的配置
func (w *ConfigWatcher) GetConfig() *Config {
	return w.current.Load()
}
