package utils

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ==================== 宽容 JSON 列表列 ====================
//
// 历史数据里可见性字段存过四种形态: null、空串、单个标量(1 / "admin")、
// 数组。读取时统一归一化成切片，写入时只输出数组或 JSON null。

// IntList 存储为 JSON 文本的整型列表列
type IntList []int64

// Scan 实现 sql.Scanner
func (l *IntList) Scan(value interface{}) error {
	raw, err := rawJSONText(value)
	if err != nil {
		return err
	}
	*l = nil
	if raw == "" || raw == "null" {
		return nil
	}

	var arr []int64
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		*l = arr
		return nil
	}

	// 兼容标量: 1 或 "1"
	s := strings.Trim(strings.TrimSpace(raw), `"`)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("非法的整型列表值: %q", raw)
	}
	*l = IntList{n}
	return nil
}

// Value 实现 driver.Valuer，始终输出数组或 JSON null
func (l IntList) Value() (driver.Value, error) {
	if l == nil {
		return "null", nil
	}
	b, err := json.Marshal([]int64(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Contains 判断列表是否包含 v
func (l IntList) Contains(v int64) bool {
	for _, x := range l {
		if x == v {
			return true
		}
	}
	return false
}

// StringList 存储为 JSON 文本的字符串列表列
type StringList []string

// Scan 实现 sql.Scanner
func (l *StringList) Scan(value interface{}) error {
	raw, err := rawJSONText(value)
	if err != nil {
		return err
	}
	*l = nil
	if raw == "" || raw == "null" {
		return nil
	}

	var arr []string
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		*l = arr
		return nil
	}

	// 兼容标量: "admin" 或裸文本
	var s string
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		s = strings.TrimSpace(raw)
	}
	if s == "" {
		return nil
	}
	*l = StringList{s}
	return nil
}

// Value 实现 driver.Valuer，始终输出数组或 JSON null
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "null", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Contains 判断列表是否包含 v
func (l StringList) Contains(v string) bool {
	for _, x := range l {
		if x == v {
			return true
		}
	}
	return false
}

func rawJSONText(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case []byte:
		return strings.TrimSpace(string(v)), nil
	case string:
		return strings.TrimSpace(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	default:
		return "", fmt.Errorf("不支持的列表列类型: %T", value)
	}
}
