// monitor.go
package file

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileMonitor 监控数据目录，记录加载之后发生变化的数据文件
// 缓存本身不会被修改，变化只作为“需重启以重新加载”的提示
type FileMonitor struct {
	watchDir string
	watcher  *fsnotify.Watcher
	files    map[string]bool // 关注的文件名
	changed  map[string]time.Time
	mu       sync.Mutex
}

// NewFileMonitor 监控 dir 下的 files
func NewFileMonitor(dir string, files []string) (*FileMonitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	m := &FileMonitor{
		watchDir: dir,
		watcher:  watcher,
		files:    make(map[string]bool, len(files)),
		changed:  make(map[string]time.Time),
	}
	for _, f := range files {
		m.files[f] = true
	}
	return m, nil
}

// Watch 阻塞直到 ctx 结束或监控出错；每个变化的文件回调一次 handler
func (m *FileMonitor) Watch(ctx context.Context, handler func(string)) error {
	defer m.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			name := filepath.Base(event.Name)
			if m.mark(name) && handler != nil {
				handler(name)
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// mark 记录变化，首次变化返回 true
func (m *FileMonitor) mark(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.files[name] {
		return false
	}
	modTime := time.Now()
	if info, err := os.Stat(filepath.Join(m.watchDir, name)); err == nil {
		modTime = info.ModTime()
	}
	_, seen := m.changed[name]
	m.changed[name] = modTime
	return !seen
}

// Changed 返回已变化的文件名(排序)
func (m *FileMonitor) Changed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.changed))
	for name := range m.changed {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
