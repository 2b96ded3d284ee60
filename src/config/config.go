package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"FlightInsights/src/schema"

	"github.com/joho/godotenv"
)

// 环境变量覆盖
const (
	EnvDataDir  = "FLIGHTINSIGHTS_DATA_DIR"
	EnvHTTPAddr = "FLIGHTINSIGHTS_HTTP_ADDR"
	EnvS3Bucket = "FLIGHTINSIGHTS_S3_BUCKET"
	EnvLogLevel = "FLIGHTINSIGHTS_LOG_LEVEL"
)

// 数据源类型
const (
	SourceDir = "dir"
	SourceS3  = "s3"
)

// 默认值
const (
	DefaultDataDir       = "data"
	DefaultHTTPAddr      = ":8080"
	DefaultLogName       = "app.log"
	DefaultLogMaxSize    = "10 * 1024 * 1024"
	DefaultReadTimeout   = 30 * time.Second
	DefaultAuditInterval = 5 * time.Minute
)

// Config 结构体定义了应用程序的配置结构
type Config struct {
	DataDir string `json:"data_dir"` // 数据文件目录
	Source  struct {
		Kind     string `json:"kind"`     // dir / s3
		Bucket   string `json:"bucket"`   // s3 桶
		Prefix   string `json:"prefix"`   // 对象前缀
		Region   string `json:"region"`   // 区域
		Endpoint string `json:"endpoint"` // MinIO 等兼容服务地址
	} `json:"source"`
	Encoding      string   `json:"encoding"`   // utf-8 / latin1 / windows-1252
	SheetName     string   `json:"sheet_name"` // xlsx 数据文件的工作表
	HTTPAddr      string   `json:"http_addr"`
	LogName       string   `json:"log_name"`
	LogMaxSize    string   `json:"log_max_size"`
	LogLevel      string   `json:"log_level"`
	ReadTimeout   Duration `json:"read_timeout"`   // 单个数据集读取超时
	AuditInterval Duration `json:"audit_interval"` // 定时巡检间隔
}

// DataConfig 数据文件映射与图表配色
type DataConfig struct {
	Files   map[string]string `json:"files"`   // 数据集标识 -> 文件名
	Palette []string          `json:"palette"` // 饼图配色
}

// Validate 补齐默认值并检查取值
func (c *Config) Validate() error {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.Source.Kind == "" {
		c.Source.Kind = SourceDir
	}
	switch c.Source.Kind {
	case SourceDir:
	case SourceS3:
		if c.Source.Bucket == "" {
			return errors.New("source.bucket is required when source.kind is s3")
		}
	default:
		return fmt.Errorf("unknown source.kind %q", c.Source.Kind)
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = DefaultHTTPAddr
	}
	if c.LogName == "" {
		c.LogName = DefaultLogName
	}
	if c.LogMaxSize == "" {
		c.LogMaxSize = DefaultLogMaxSize
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = Duration(DefaultReadTimeout)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("read_timeout must be positive, got %s", time.Duration(c.ReadTimeout))
	}
	if c.AuditInterval <= 0 {
		c.AuditInterval = Duration(DefaultAuditInterval)
	}
	return nil
}

// DatasetFiles 把文件映射转换为数据集标识，未注册的标识报错
func (dc *DataConfig) DatasetFiles() (map[schema.DatasetID]string, error) {
	out := make(map[schema.DatasetID]string, len(dc.Files))
	for key, name := range dc.Files {
		id, ok := schema.Parse(key)
		if !ok {
			return nil, fmt.Errorf("dataconfig: unknown dataset %q", key)
		}
		out[id] = strings.TrimSpace(name)
	}
	return out, nil
}

// LoadConfig 读取并解析两个配置文件
// 文件不存在时使用默认值；之后应用 .env 与环境变量覆盖
func LoadConfig(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	cfg, dcfg, err := loadConfigs(jsonFolder, jsonFile, dataJsonFile)
	if err != nil {
		return nil, nil, err
	}

	if err := godotenv.Load(filepath.Join(jsonFolder, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("读取 .env 失败: %w", err)
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("配置校验失败: %w", err)
	}
	return cfg, dcfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(EnvHTTPAddr); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv(EnvS3Bucket); v != "" {
		cfg.Source.Kind = SourceS3
		cfg.Source.Bucket = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
}

func loadConfigs(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	dataConfigFile := filepath.Join(jsonFolder, dataJsonFile)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	dataConfigData, err := readFile(dataConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取数据配置文件失败: %w", err)
	}

	cfgChan := make(chan *Config, 1)
	dcfgChan := make(chan *DataConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, cfgChan, errChan)
	go parseDataConfig(dataConfigData, dcfgChan, errChan)

	return waitForResults(cfgChan, dcfgChan, errChan)
}

// readFile 文件不存在时返回空对象
func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("config file not found, using defaults", "file", filePath)
		return []byte("{}"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}
	return data, nil
}

func parseConfig(data []byte, resultChan chan<- *Config, errChan chan<- error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		errChan <- fmt.Errorf("解析Config失败: %w", err)
		return
	}
	resultChan <- &cfg
}

func parseDataConfig(data []byte, resultChan chan<- *DataConfig, errChan chan<- error) {
	var dcfg DataConfig
	if err := json.Unmarshal(data, &dcfg); err != nil {
		errChan <- fmt.Errorf("解析DataConfig失败: %w", err)
		return
	}
	resultChan <- &dcfg
}

func waitForResults(
	cfgChan <-chan *Config,
	dcfgChan <-chan *DataConfig,
	errChan <-chan error,
) (*Config, *DataConfig, error) {
	var (
		cfg    *Config
		dcfg   *DataConfig
		errors []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
			slog.Debug("Config 配置文件加载完毕")
		case d := <-dcfgChan:
			dcfg = d
			slog.Debug("DataConfig 配置文件加载完毕")
		case err := <-errChan:
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return nil, nil, combineErrors(errors)
	}

	if cfg == nil || dcfg == nil {
		return nil, nil, fmt.Errorf("部分配置未加载成功")
	}

	return cfg, dcfg, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	// 使用固定格式字符串
	msg := "配置加载遇到多个错误:"
	for _, err := range errs {
		msg = fmt.Sprintf("%s\n- %v", msg, err)
	}
	return fmt.Errorf("%s", msg)
}

// Duration 是time.Duration的自定义包装类型
// 用于支持JSON序列化和反序列化
type Duration time.Duration

// UnmarshalJSON 实现json.Unmarshaler接口
// 用于从JSON字符串解析Duration
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalJSON 实现json.Marshaler接口
// 用于将Duration序列化为JSON字符串
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
