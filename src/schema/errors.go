package schema

import (
	"errors"
	"fmt"
)

// ErrDataUnavailable GetAll 聚合失败的哨兵错误
var ErrDataUnavailable = errors.New("dashboard data unavailable")

// LoadError 数据源无法读取(文件缺失、存储不可达、超时、取消)
type LoadError struct {
	Dataset DatasetID
	Cause   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Dataset, e.Cause)
}

func (e *LoadError) Unwrap() error { return e.Cause }

// SchemaError 列集合与注册表不一致
type SchemaError struct {
	Dataset DatasetID
	Column  string
	Reason  string // "missing" / "unexpected" / "duplicate"
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %s: column %q %s", e.Dataset, e.Column, e.Reason)
}

// DataIntegrityError 值层面的约束被破坏，只影响对应的图表
type DataIntegrityError struct {
	Dataset DatasetID
	Column  string
	Row     int // -1 表示与单行无关
	Reason  string
}

func (e *DataIntegrityError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("integrity %s.%s: %s", e.Dataset, e.Column, e.Reason)
	}
	return fmt.Sprintf("integrity %s.%s row %d: %s", e.Dataset, e.Column, e.Row, e.Reason)
}

// CoercionWarning 单元格无法转换为数值，已替换为缺失标记(非致命)
type CoercionWarning struct {
	Dataset DatasetID
	Column  string
	Row     int
	Value   string
}

func (w CoercionWarning) String() string {
	return fmt.Sprintf("%s.%s row %d: %q is not numeric", w.Dataset, w.Column, w.Row, w.Value)
}
