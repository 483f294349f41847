package service

import (
	"strings"
	"testing"
)

func TestComposeAndParseBundleNote(t *testing.T) {
	meta := BundleMeta{ID: 7, Qty: 2, Total: 160, Name: "焕活套组"}
	note := ComposeBundleNote("客户生日赠礼", meta)

	if !strings.Contains(note, "[bundle:7]") {
		t.Errorf("备注缺少引用标签: %q", note)
	}
	id, ok := ParseBundleID(note)
	if !ok || id != 7 {
		t.Errorf("ParseBundleID = (%d, %v), 期望 (7, true)", id, ok)
	}
	parsed, ok := ParseBundleMeta(note)
	if !ok {
		t.Fatalf("元数据解析失败: %q", note)
	}
	if *parsed != meta {
		t.Errorf("元数据往返不一致: %+v", parsed)
	}
	if got := StripTags(note); got != "客户生日赠礼" {
		t.Errorf("StripTags = %q", got)
	}
}

func TestParseBundleIDMissing(t *testing.T) {
	if id, ok := ParseBundleID("没有任何标签的备注"); ok || id != 0 {
		t.Errorf("无标签备注应返回 (0, false), got (%d, %v)", id, ok)
	}
	// 形式必须精确，方括号残缺不算
	if _, ok := ParseBundleID("bundle:7]"); ok {
		t.Error("残缺标签不应被解析")
	}
}

func TestPreserveTagsSurvivesUserEdit(t *testing.T) {
	meta := BundleMeta{ID: 12, Qty: 1, Total: 88, Name: "睡眠套组"}
	old := ComposeBundleNote("原备注", meta)

	// 用户改掉全文甚至试图删除标签，标签仍按旧备注恢复
	updated := PreserveTags(old, "改成新的备注 [bundle:999]")
	if !strings.Contains(updated, "[bundle:12]") {
		t.Errorf("套组标签丢失: %q", updated)
	}
	if strings.Contains(updated, "[bundle:999]") {
		t.Errorf("用户伪造的标签不应保留: %q", updated)
	}
	if got := StripTags(updated); got != "改成新的备注" {
		t.Errorf("用户文本 = %q", got)
	}
	if parsed, ok := ParseBundleMeta(updated); !ok || parsed.ID != 12 {
		t.Errorf("元数据未随编辑保留: %q", updated)
	}
}

func TestComposeOrderMetaNote(t *testing.T) {
	note := ComposeOrderMetaNote("整单备注", "SO-20260901-abc")
	if !strings.Contains(note, "order_meta") {
		t.Errorf("缺少分组标签: %q", note)
	}
	if got := StripTags(note); got != "整单备注" {
		t.Errorf("StripTags = %q", got)
	}

	kept := PreserveTags(note, "")
	if !strings.Contains(kept, "SO-20260901-abc") {
		t.Errorf("分组标签未保留: %q", kept)
	}
}
