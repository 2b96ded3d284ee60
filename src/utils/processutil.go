package utils

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Contains 判断切片中是否包含 item
func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// SheetName excel 工作表名最长31个字符，且不能含 : \ / ? * [ ]
func SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, name)
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}

// WriteSheet 写入一个工作表：第一行为列名，之后按行写值
// 工作表不存在时创建；"Sheet1" 默认存在
func WriteSheet(f *excelize.File, sheetName string, header []string, rows [][]any) error {
	sheetName = SheetName(sheetName)
	if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		if _, err := f.NewSheet(sheetName); err != nil {
			return fmt.Errorf("创建工作表 %s 失败: %w", sheetName, err)
		}
	}

	// 写入列名
	for i, name := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return err
		}
	}

	// 写入数据
	for rowIdx, row := range rows {
		for colIdx, val := range row {
			if val == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheetName, cell, val); err != nil {
				return err
			}
		}
	}
	return nil
}
