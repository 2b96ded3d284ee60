// reader.go
package file

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Source 数据文件所在的存储(本地目录或对象存储)
type Source interface {
	// Open 打开名为 name 的数据文件
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Location 用于日志展示
	Location(name string) string
}

// DirSource 本地目录
type DirSource struct {
	Dir string
}

// NewDirSource 创建本地目录数据源，目录不存在时返回错误
func NewDirSource(dir string) (*DirSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("data dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s exists but is not a directory", dir)
	}
	return &DirSource{Dir: dir}, nil
}

func (s *DirSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.Dir, name))
}

func (s *DirSource) Location(name string) string {
	return filepath.Join(s.Dir, name)
}

// Decoder 返回源文件编码对应的解码器
// utf-8 默认容忍BOM；latin1 / windows-1252 适配 Excel 导出的CSV
func Decoder(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8BOM, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// Reader 按文件扩展名把数据文件读成字符串类型的 DataFrame
// 类型转换在 dataset 包里按注册表完成，这里不做类型推断
type Reader struct {
	Source    Source
	Encoding  encoding.Encoding
	SheetName string // xlsx 工作表，为空取第一个
}

// NewReader 创建读取器
func NewReader(src Source, encodingName, sheetName string) (*Reader, error) {
	enc, err := Decoder(encodingName)
	if err != nil {
		return nil, err
	}
	return &Reader{Source: src, Encoding: enc, SheetName: sheetName}, nil
}

// ReadFrame 读取整个文件并转换为 DataFrame
func (r *Reader) ReadFrame(ctx context.Context, name string) (dataframe.DataFrame, error) {
	rc, err := r.Source.Open(ctx, name)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer rc.Close()

	data, err := readAll(ctx, rc)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read %s: %w", r.Source.Location(name), err)
	}

	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return ReadXLSX(data, r.SheetName)
	}
	return ReadCSV(data, r.Encoding)
}

// readAll 读取时检查 ctx，超时或取消立即返回
func readAll(ctx context.Context, rc io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := rc.Read(chunk)
		buf.Write(chunk[:n])
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// ReadCSV 解码并解析带表头的CSV，所有列按字符串读取
func ReadCSV(data []byte, enc encoding.Encoding) (dataframe.DataFrame, error) {
	if enc == nil {
		enc = unicode.UTF8BOM
	}
	decoded := transform.NewReader(bytes.NewReader(data), enc.NewDecoder())

	df := dataframe.ReadCSV(decoded,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil), // 缺失值由 dataset 包按列类型识别
		dataframe.WithLazyQuotes(true),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("parse csv: %w", df.Err)
	}
	return df, nil
}

// ReadXLSX 使用tealeg/xlsx读取工作表，第一行为表头
func ReadXLSX(data []byte, sheetName string) (dataframe.DataFrame, error) {
	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("xlsx open: %w", err)
	}
	if len(xlFile.Sheets) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("xlsx has no sheets")
	}

	sheet := xlFile.Sheets[0]
	if sheetName != "" {
		s, ok := xlFile.Sheet[sheetName]
		if !ok {
			return dataframe.DataFrame{}, fmt.Errorf("xlsx sheet %q not found", sheetName)
		}
		sheet = s
	}
	return convertSheetToDataFrame(sheet)
}

// convertSheetToDataFrame 将xlsx.Sheet转换为字符串列的DataFrame
func convertSheetToDataFrame(sheet *xlsx.Sheet) (dataframe.DataFrame, error) {
	if len(sheet.Rows) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("sheet %s is empty", sheet.Name)
	}

	// 第一行是标题行
	var headers []string
	for _, cell := range sheet.Rows[0].Cells {
		headers = append(headers, cell.String())
	}
	for len(headers) > 0 && strings.TrimSpace(headers[len(headers)-1]) == "" {
		headers = headers[:len(headers)-1]
	}

	columns := make([][]string, len(headers))
	for i := range columns {
		columns[i] = make([]string, 0, len(sheet.Rows)-1)
	}

	for _, row := range sheet.Rows[1:] {
		if row == nil || emptyRow(row) {
			continue
		}
		for i := range headers {
			// 短行补空值，保证各列等长
			val := ""
			if i < len(row.Cells) {
				val = row.Cells[i].String()
			}
			columns[i] = append(columns[i], val)
		}
	}

	seriesList := make([]series.Series, len(headers))
	for i, colName := range headers {
		seriesList[i] = series.New(columns[i], series.String, colName)
	}
	df := dataframe.New(seriesList...)
	return df, df.Err
}

func emptyRow(row *xlsx.Row) bool {
	for _, c := range row.Cells {
		if strings.TrimSpace(c.String()) != "" {
			return false
		}
	}
	return true
}
