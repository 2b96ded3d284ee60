package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"FlightInsights/src/config"
	"FlightInsights/src/dashboard"
	"FlightInsights/src/datasource/file"
	"FlightInsights/src/datasource/s3"
	"FlightInsights/src/metrics"
	"FlightInsights/src/schema"
	"FlightInsights/src/storage"
	"FlightInsights/src/utils"

	"github.com/robfig/cron"
)

const (
	configFile     = "config.json"
	dataConfigFile = "dataconfig.json"
)

// app 启动时构造一次的全部组件
type app struct {
	cfg       *config.Config
	dcfg      *config.DataConfig
	logger    *storage.Logger
	log       *slog.Logger
	cache     *storage.Cache
	dashboard *dashboard.Dashboard
	monitor   *file.FileMonitor // 仅目录数据源
}

func newApp(ctx context.Context, configDir string, verbose bool, console io.Writer) (*app, error) {
	cfg, dcfg, err := config.LoadConfig(configDir, configFile, dataConfigFile)
	if err != nil {
		return nil, err
	}

	// 初始化日志系统
	logger, err := storage.NewLogger(storage.Options{
		Filename: cfg.LogName,
		MaxSize:  cfg.LogMaxSize,
		Level:    cfg.LogLevel,
		Console:  console,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		logger.SetLevel(slog.LevelDebug)
	}
	a := &app{cfg: cfg, dcfg: dcfg, logger: logger, log: logger.Slog()}

	src, err := a.newSource(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	reader, err := file.NewReader(src, cfg.Encoding, cfg.SheetName)
	if err != nil {
		a.Close()
		return nil, err
	}

	files, err := dcfg.DatasetFiles()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.cache, err = storage.NewCache(storage.CacheConfig{
		Reader:      reader,
		Files:       files,
		ReadTimeout: time.Duration(cfg.ReadTimeout),
		Logger:      a.log,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.dashboard, err = dashboard.New(dashboard.Config{
		Loader:  a.cache,
		Palette: dcfg.Palette,
		Stale:   a.staleSources,
		Logger:  a.log,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) newSource(ctx context.Context) (file.Source, error) {
	switch a.cfg.Source.Kind {
	case config.SourceS3:
		a.log.Info("using s3 data source", "bucket", a.cfg.Source.Bucket, "prefix", a.cfg.Source.Prefix)
		return s3.New(ctx, s3.Config{
			Bucket:   a.cfg.Source.Bucket,
			Prefix:   a.cfg.Source.Prefix,
			Region:   a.cfg.Source.Region,
			Endpoint: a.cfg.Source.Endpoint,
		})
	default:
		a.log.Info("using directory data source", "dir", a.cfg.DataDir)
		return file.NewDirSource(a.cfg.DataDir)
	}
}

// watchSources 监控目录数据源的文件变化，直到 ctx 结束
// 缓存不会重新加载，变化只记录为看板上的提示
func (a *app) watchSources(ctx context.Context) {
	if a.cfg.Source.Kind != config.SourceDir {
		return
	}
	names := make([]string, 0, len(schema.IDs()))
	for _, id := range schema.IDs() {
		// 多个数据集可以指向同一文件
		if name := a.cache.File(id); !utils.Contains(names, name) {
			names = append(names, name)
		}
	}
	monitor, err := file.NewFileMonitor(a.cfg.DataDir, names)
	if err != nil {
		a.log.Warn("file monitor disabled", "dir", a.cfg.DataDir, "error", err)
		return
	}
	a.monitor = monitor

	go func() {
		err := monitor.Watch(ctx, func(name string) {
			metrics.SourceChanges.Inc()
			a.log.Warn("data file changed, restart to reload",
				"file", name, "datasets", a.cache.DatasetsForFile(name))
		})
		if err != nil {
			a.log.Error("file monitor stopped", "error", err)
		}
	}()
}

func (a *app) staleSources() []string {
	if a.monitor == nil {
		return nil
	}
	return a.monitor.Changed()
}

// startAudit 定时检查日志大小并输出缓存状态
func (a *app) startAudit() (*cron.Cron, error) {
	c := cron.New()

	// 使用配置中的检查间隔，例如 "@every 5m0s"
	cronSpec := fmt.Sprintf("@every %s", time.Duration(a.cfg.AuditInterval))
	err := c.AddFunc(cronSpec, func() {
		rotated, err := a.logger.CheckRotate()
		if err != nil {
			a.log.Error("log rotation failed", "error", err)
		} else if rotated {
			a.log.Info("log file rotated", "file", a.cfg.LogName)
		}
		a.log.Info("cache status", "loaded", a.cache.Loaded(), "total", len(schema.IDs()))
	})
	if err != nil {
		return nil, fmt.Errorf("创建定时任务失败: %w", err)
	}
	c.Start()
	return c, nil
}

func (a *app) Close() {
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

func consoleFor(verbose bool) io.Writer {
	if verbose {
		return os.Stdout
	}
	return nil
}
