package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"FlightInsights/src/dataset"
	"FlightInsights/src/metrics"
	"FlightInsights/src/schema"

	"github.com/go-gota/gota/dataframe"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// FrameReader 从存储读取一个数据文件(file.Reader 实现)
type FrameReader interface {
	ReadFrame(ctx context.Context, name string) (dataframe.DataFrame, error)
}

// Cache 数据集缓存：每个数据集在进程生命周期内最多成功加载一次
//
// 读锁只保护槽位表；加载本身在锁外通过 singleflight 完成，
// 并发的首次访问共享同一次读取。失败不写入缓存，下次调用会重新加载。
type Cache struct {
	reader  FrameReader
	files   map[schema.DatasetID]string
	timeout time.Duration
	log     *slog.Logger

	mu     sync.RWMutex
	tables map[schema.DatasetID]*dataset.Dataset
	group  singleflight.Group
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Reader      FrameReader
	Files       map[schema.DatasetID]string // 为空的条目使用注册表默认文件名
	ReadTimeout time.Duration               // 单个数据集的读取超时，0 表示不限
	Logger      *slog.Logger
}

// NewCache 创建缓存，启动时构造一次并传给展示层
func NewCache(cfg CacheConfig) (*Cache, error) {
	if cfg.Reader == nil {
		return nil, errors.New("cache: reader is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	files := make(map[schema.DatasetID]string, len(schema.IDs()))
	for _, id := range schema.IDs() {
		files[id] = schema.Lookup(id).File
		if name := cfg.Files[id]; name != "" {
			files[id] = name
		}
	}
	for id := range cfg.Files {
		if !schema.Known(id) {
			return nil, fmt.Errorf("cache: unknown dataset %q in file mapping", id)
		}
	}

	return &Cache{
		reader:  cfg.Reader,
		files:   files,
		timeout: cfg.ReadTimeout,
		log:     logger,
		tables:  make(map[schema.DatasetID]*dataset.Dataset),
	}, nil
}

// File 返回数据集对应的文件名
func (c *Cache) File(id schema.DatasetID) string {
	schema.Lookup(id)
	return c.files[id]
}

// Get 返回数据集；首次调用读取并校验，之后直接返回缓存
func (c *Cache) Get(ctx context.Context, id schema.DatasetID) (*dataset.Dataset, error) {
	schema.Lookup(id)

	// Fast path
	if ds, ok := c.cached(id); ok {
		return ds, nil
	}

	// Slow path: 同一数据集的并发调用共享一次读取
	ch := c.group.DoChan(string(id), func() (any, error) {
		if ds, ok := c.cached(id); ok {
			return ds, nil
		}
		return c.load(ctx, id)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*dataset.Dataset), nil
	case <-ctx.Done():
		// 调用方放弃等待，进行中的加载不受影响
		return nil, &schema.LoadError{Dataset: id, Cause: ctx.Err()}
	}
}

// GetAll 加载全部数据集；任何一个失败则返回 nil 和聚合错误
func (c *Cache) GetAll(ctx context.Context) (map[schema.DatasetID]*dataset.Dataset, error) {
	ids := schema.IDs()
	var (
		mu  sync.Mutex
		out = make(map[schema.DatasetID]*dataset.Dataset, len(ids))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		g.Go(func() error {
			ds, err := c.Get(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			out[id] = ds
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", schema.ErrDataUnavailable, err)
	}
	return out, nil
}

// Loaded 已缓存的数据集(注册顺序)
func (c *Cache) Loaded() []schema.DatasetID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var ids []schema.DatasetID
	for _, id := range schema.IDs() {
		if _, ok := c.tables[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// DatasetsForFile 反查文件对应的数据集(源文件变化提示用)
func (c *Cache) DatasetsForFile(name string) []schema.DatasetID {
	var ids []schema.DatasetID
	for id, f := range c.files {
		if f == name {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (c *Cache) cached(id schema.DatasetID) (*dataset.Dataset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ds, ok := c.tables[id]
	return ds, ok
}

// load 读取、校验、提交；只有完整成功的数据集才写入缓存
func (c *Cache) load(ctx context.Context, id schema.DatasetID) (*dataset.Dataset, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	file := c.files[id]
	metrics.SourceReads.WithLabelValues(string(id)).Inc()

	raw, err := c.reader.ReadFrame(ctx, file)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, c.fail(id, &schema.LoadError{Dataset: id, Cause: err})
	}

	ds, err := dataset.FromFrame(id, raw)
	if err != nil {
		return nil, c.fail(id, err)
	}
	// 取消发生在转换期间也不提交
	if err := ctx.Err(); err != nil {
		return nil, c.fail(id, &schema.LoadError{Dataset: id, Cause: err})
	}

	c.mu.Lock()
	c.tables[id] = ds
	metrics.DatasetsCached.Set(float64(len(c.tables)))
	c.mu.Unlock()

	elapsed := time.Since(start)
	metrics.DatasetLoads.WithLabelValues(string(id), "ok").Inc()
	metrics.DatasetLoadDuration.WithLabelValues(string(id)).Observe(elapsed.Seconds())

	warnings := ds.Warnings()
	for _, w := range warnings {
		metrics.CoercionWarnings.WithLabelValues(string(id), w.Column).Inc()
		c.log.Debug("cache: coercion warning", "warning", w.String())
	}
	if len(warnings) > 0 {
		c.log.Warn("cache: dataset loaded with coercion warnings", "dataset", id, "warnings", len(warnings))
	}
	c.log.Info("cache: dataset loaded", "dataset", id, "file", file, "rows", ds.Len(), "duration", elapsed)
	return ds, nil
}

func (c *Cache) fail(id schema.DatasetID, err error) error {
	metrics.DatasetLoads.WithLabelValues(string(id), "error").Inc()
	c.log.Error("cache: dataset load failed", "dataset", id, "error", err)
	return err
}
