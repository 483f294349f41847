package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ==================== 备注内嵌标签 ====================
//
// 销售行备注里埋了三种标签，是过账与库存历史读模型之间的线上契约:
//   [bundle:<id>]            套组引用，形式必须精确
//   [[bundle_meta {json}]]   套组元数据 {id, qty, total, name}
//   [[order_meta {json}]]    跨行分组 {group}
// 用户改备注时标签不能丢，每次更新都重新追加。

var (
	bundleTagRe  = regexp.MustCompile(`\s*\[bundle:(\d+)\]`)
	bundleMetaRe = regexp.MustCompile(`\s*\[\[bundle_meta\s+(\{.*?\})\]\]`)
	orderMetaRe  = regexp.MustCompile(`\s*\[\[order_meta\s+(\{.*?\})\]\]`)
)

// BundleMeta 套组元数据
type BundleMeta struct {
	ID    int64   `json:"id"`
	Qty   int     `json:"qty"`
	Total float64 `json:"total"`
	Name  string  `json:"name"`
}

// OrderMeta 跨行分组元数据
type OrderMeta struct {
	Group string `json:"group"`
}

// BundleTag 生成套组引用标签
func BundleTag(bundleID int64) string {
	return fmt.Sprintf("[bundle:%d]", bundleID)
}

// ComposeBundleNote 组装套组组件行备注: 用户备注 + 元数据 + 引用标签
func ComposeBundleNote(userNote string, meta BundleMeta) string {
	payload, _ := json.Marshal(meta)
	parts := []string{}
	if trimmed := strings.TrimSpace(userNote); trimmed != "" {
		parts = append(parts, trimmed)
	}
	parts = append(parts, fmt.Sprintf("[[bundle_meta %s]]", payload), BundleTag(meta.ID))
	return strings.Join(parts, " ")
}

// ComposeOrderMetaNote 追加跨行分组标签
func ComposeOrderMetaNote(userNote, group string) string {
	payload, _ := json.Marshal(OrderMeta{Group: group})
	tag := fmt.Sprintf("[[order_meta %s]]", payload)
	if trimmed := strings.TrimSpace(userNote); trimmed != "" {
		return trimmed + " " + tag
	}
	return tag
}

// ParseBundleID 从备注提取套组 ID，没有返回 (0, false)
func ParseBundleID(note string) (int64, bool) {
	m := bundleTagRe.FindStringSubmatch(note)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ParseBundleMeta 从备注提取套组元数据
func ParseBundleMeta(note string) (*BundleMeta, bool) {
	m := bundleMetaRe.FindStringSubmatch(note)
	if m == nil {
		return nil, false
	}
	var meta BundleMeta
	if err := json.Unmarshal([]byte(m[1]), &meta); err != nil {
		return nil, false
	}
	return &meta, true
}

// StripTags 去掉标签，留下用户可编辑的纯文本
func StripTags(note string) string {
	note = bundleMetaRe.ReplaceAllString(note, "")
	note = orderMetaRe.ReplaceAllString(note, "")
	note = bundleTagRe.ReplaceAllString(note, "")
	return strings.TrimSpace(note)
}

// PreserveTags 用户更新备注后把原有标签重新追加
// 标签内容以旧备注为准，防止前端改动或丢弃
func PreserveTags(oldNote, newUserNote string) string {
	result := StripTags(newUserNote)
	if meta, ok := ParseBundleMeta(oldNote); ok {
		payload, _ := json.Marshal(meta)
		tag := fmt.Sprintf("[[bundle_meta %s]]", payload)
		if result != "" {
			result += " "
		}
		result += tag
	}
	if m := orderMetaRe.FindStringSubmatch(oldNote); m != nil {
		tag := fmt.Sprintf("[[order_meta %s]]", m[1])
		if result != "" {
			result += " "
		}
		result += tag
	}
	if id, ok := ParseBundleID(oldNote); ok {
		if result != "" {
			result += " "
		}
		result += BundleTag(id)
	}
	return result
}
