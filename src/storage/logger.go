package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

// Logger 日志记录器
// 作为 slog(tint) 的输出端：写日志文件，同时推送给订阅者(/logs 实时日志)
type Logger struct {
	filename    string
	maxSize     int64
	file        *os.File      // 日志文件句柄
	console     io.Writer     // 可选，同时输出到终端
	mu          sync.Mutex    // 互斥锁，保证并发安全
	subscribers []chan string // 订阅者通道列表
	level       *slog.LevelVar
	logger      *slog.Logger
}

// Options 日志配置
type Options struct {
	Filename string
	MaxSize  string // 例如 "10 * 1024 * 1024"
	Level    string // debug / info / warn / error
	Console  io.Writer
}

// NewLogger 创建新的日志记录器
// 参数:
//
//	opts: 日志文件、轮转阈值、级别
//
// 返回值:
//
//	*Logger: 日志记录器实例
//	error: 创建过程中的错误
func NewLogger(opts Options) (*Logger, error) {
	maxSize, err := eval(opts.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("log_max_size: %w", err)
	}
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	// 打开或创建日志文件，权限设置为0644
	file, err := os.OpenFile(opts.Filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	l := &Logger{
		filename: opts.Filename,
		maxSize:  maxSize,
		file:     file,
		console:  opts.Console,
		level:    new(slog.LevelVar),
	}
	l.level.Set(level)
	l.logger = slog.New(tint.NewHandler(l, &tint.Options{
		Level:      l.level,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}))
	return l, nil
}

// Slog 返回写入本记录器的 *slog.Logger
func (l *Logger) Slog() *slog.Logger { return l.logger }

// SetLevel 运行时调整级别
func (l *Logger) SetLevel(level slog.Level) { l.level.Set(level) }

// Write 实现 io.Writer，每次调用对应一条完整日志
func (l *Logger) Write(p []byte) (int, error) {
	l.mu.Lock()         // 加锁保证线程安全
	defer l.mu.Unlock() // 方法结束时自动解锁

	n, err := l.file.Write(p)
	if l.console != nil {
		_, _ = l.console.Write(p)
	}

	// 通知所有订阅者
	entry := string(p)
	for _, ch := range l.subscribers {
		select {
		case ch <- entry: // 尝试发送日志条目
		default: // 如果通道已满则跳过
		}
	}
	return n, err
}

// Close 关闭日志文件
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Reopen 重新打开日志文件(SIGHUP，配合外部 logrotate)
// 参数：
// filename：新文件的路径，为空时沿用当前文件名
func (l *Logger) Reopen(filename string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if filename == "" {
		filename = l.filename
	}
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	// 新文件打开成功后再关闭旧文件
	if l.file != nil {
		_ = l.file.Close()
	}
	l.file = file
	l.filename = filename
	return nil
}

// CheckRotate 文件超过阈值时轮转，返回是否发生了轮转
func (l *Logger) CheckRotate() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, err := l.file.Stat()
	if err != nil {
		return false, err
	}
	if l.maxSize <= 0 || info.Size() <= l.maxSize {
		return false, nil
	}
	return true, l.rotateLocked()
}

// rotateLocked 先改名再换句柄；改名失败时重新打开原文件名，日志不中断
func (l *Logger) rotateLocked() error {
	ext := ""
	base := l.filename
	if i := strings.LastIndex(base, "."); i > 0 {
		base, ext = l.filename[:i], l.filename[i:]
	}
	archived := fmt.Sprintf("%s.%s%s", base, time.Now().Format("20060102150405"), ext)
	renameErr := os.Rename(l.filename, archived)

	file, err := os.OpenFile(l.filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		if renameErr != nil {
			return fmt.Errorf("rotate log: %w", errors.Join(renameErr, err))
		}
		return fmt.Errorf("rotate log: %w", err)
	}
	if l.file != nil {
		_ = l.file.Close()
	}
	l.file = file
	if renameErr != nil {
		return fmt.Errorf("rotate log: %w", renameErr)
	}
	return nil
}

// Subscribe 订阅日志消息
// 返回值:
//
//	<-chan string: 只读通道，用于接收日志消息
func (l *Logger) Subscribe() <-chan string {
	l.mu.Lock()
	defer l.mu.Unlock()

	// 创建带缓冲的通道(容量100)
	ch := make(chan string, 100)
	// 将新通道加入订阅者列表
	l.subscribers = append(l.subscribers, ch)
	return ch
}

// Unsubscribe 取消订阅(客户端断开时调用)
func (l *Logger) Unsubscribe(sub <-chan string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, ch := range l.subscribers {
		if ch == sub {
			l.subscribers = append(l.subscribers[:i], l.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// ParseLevel 解析配置中的日志级别，空值为 info
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// eval 计算 "10 * 1024 * 1024" 这种乘法表达式，空串表示不轮转
func eval(expr string) (int64, error) {
	if strings.TrimSpace(expr) == "" {
		return 0, nil
	}
	parts := strings.Split(expr, "*")
	var result int64 = 1
	for _, part := range parts {
		num, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("bad size expression %q", expr)
		}
		result *= num
	}
	return result, nil
}
