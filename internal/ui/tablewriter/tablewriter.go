package tablewriter

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Column 表格列定义
type Column struct {
	Name         string // 列名
	SeparateLine bool   // 是否单独一行显示
	RightAlign   bool   // 是否右对齐
}

type columnCfg struct {
	rightAlign bool
}

// ColumnOption 列选项
type ColumnOption func(*columnCfg)

// RightAlign 列内容右对齐，用于金额等数字列
func RightAlign() ColumnOption {
	return func(c *columnCfg) {
		c.rightAlign = true
	}
}

// TableWriter 表格写入器
// 单元格可以带颜色，列宽按去掉颜色控制符后的可见宽度计算
type TableWriter struct {
	cols   []Column
	rows   []map[string]string
	header *color.Color
}

func Col(name string, opts ...ColumnOption) Column {
	cfg := &columnCfg{}
	for _, o := range opts {
		o(cfg)
	}
	return Column{
		Name:       name,
		RightAlign: cfg.rightAlign,
	}
}

// NewLineCol 创建在数据行下方单独显示的列，值为空时不输出
func NewLineCol(name string) Column {
	return Column{
		Name:         name,
		SeparateLine: true,
	}
}

func New(cols ...Column) *TableWriter {
	return &TableWriter{
		cols:   cols,
		header: color.New(color.Bold),
	}
}

// Write 写入一行数据，缺失的列输出为空
func (w *TableWriter) Write(r map[string]interface{}) {
	row := make(map[string]string, len(r))
	for k, v := range r {
		if v == nil {
			continue
		}
		row[k] = fmt.Sprint(v)
	}
	w.rows = append(w.rows, row)
}

// Len 已写入的行数
func (w *TableWriter) Len() int {
	return len(w.rows)
}

// Flush 输出表头和所有行
func (w *TableWriter) Flush(out io.Writer) error {
	cols := make([]Column, 0, len(w.cols))
	for _, col := range w.cols {
		if !col.SeparateLine {
			cols = append(cols, col)
		}
	}

	widths := make([]int, len(cols))
	for i, col := range cols {
		widths[i] = visibleWidth(col.Name)
		for _, row := range w.rows {
			if n := visibleWidth(row[col.Name]); n > widths[i] {
				widths[i] = n
			}
		}
	}

	if len(cols) > 0 {
		names := make([]string, len(cols))
		for i, col := range cols {
			names[i] = w.header.Sprint(col.Name)
		}
		if err := writeLine(out, cols, widths, names); err != nil {
			return err
		}
	}

	for _, row := range w.rows {
		fields := make([]string, len(cols))
		for i, col := range cols {
			fields[i] = row[col.Name]
		}
		if len(fields) > 0 {
			if err := writeLine(out, cols, widths, fields); err != nil {
				return err
			}
		}

		for _, col := range w.cols {
			if !col.SeparateLine {
				continue
			}
			if val := row[col.Name]; val != "" {
				if _, err := fmt.Fprintf(out, "  %s: %s\n", col.Name, val); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func writeLine(out io.Writer, cols []Column, widths []int, fields []string) error {
	var b strings.Builder
	for i, field := range fields {
		pad := strings.Repeat(" ", widths[i]-visibleWidth(field))
		last := i == len(fields)-1
		switch {
		case cols[i].RightAlign:
			b.WriteString(pad)
			b.WriteString(field)
		case last:
			b.WriteString(field)
		default:
			b.WriteString(field)
			b.WriteString(pad)
		}
		if !last {
			b.WriteString("  ")
		}
	}
	b.WriteString("\n")
	_, err := io.WriteString(out, b.String())
	return err
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func visibleWidth(s string) int {
	return utf8.RuneCountInString(ansiEscape.ReplaceAllString(s, ""))
}
