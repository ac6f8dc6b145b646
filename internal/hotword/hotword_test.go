package hotword

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTable(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestPhraseTableAppliesLongestFirst(t *testing.T) {
	dir := t.TempDir()
	path := writeTable(t, dir, "hot-zh.txt", "# comment\n人工智能\t人工智能(AI)\n智能\t聪明\n")

	table, err := LoadPhraseTable(path)
	if err != nil {
		t.Fatalf("LoadPhraseTable: %v", err)
	}
	got := table.Apply("我喜欢人工智能技术")
	want := "我喜欢人工智能(AI)技术"
	if got != want {
		t.Fatalf("Apply = %q, want %q", got, want)
	}
}

func TestRuleTableAppliesInOrder(t *testing.T) {
	dir := t.TempDir()
	path := writeTable(t, dir, "hot-rule.txt", "foo\tbar\nbar\tbaz\n")

	table, err := LoadRuleTable(path)
	if err != nil {
		t.Fatalf("LoadRuleTable: %v", err)
	}
	// "foo" -> "bar" -> "baz" since rules apply in file order over the
	// already-substituted text.
	if got := table.Apply("foo"); got != "baz" {
		t.Fatalf("Apply = %q, want %q", got, "baz")
	}
}

func TestRuleTableRejectsBadRegex(t *testing.T) {
	dir := t.TempDir()
	path := writeTable(t, dir, "bad.txt", "(?!foo)\tbar\n")
	if _, err := LoadRuleTable(path); err == nil {
		t.Fatal("expected an error for an unsupported RE2 pattern")
	}
}

func TestKeywordListMatchPicksLongest(t *testing.T) {
	list := KeywordList{"", "备忘", "备忘录"}
	kwd, rest := list.Match("备忘录，买牛奶")
	if kwd != "备忘录" {
		t.Fatalf("kwd = %q, want %q", kwd, "备忘录")
	}
	if rest != "买牛奶" {
		t.Fatalf("rest = %q, want %q", rest, "买牛奶")
	}
}

func TestKeywordListMatchFallsBackToEmpty(t *testing.T) {
	list := KeywordList{"", "备忘"}
	kwd, rest := list.Match("今天天气不错")
	if kwd != "" {
		t.Fatalf("kwd = %q, want empty", kwd)
	}
	if rest != "今天天气不错" {
		t.Fatalf("rest = %q, want unchanged text", rest)
	}
}

func TestLayersApplyRespectsEnableFlags(t *testing.T) {
	layers := Layers{
		ZH:       PhraseTable{"你好": "HELLO"},
		EN:       PhraseTable{"world": "WORLD"},
		EnableZH: false,
		EnableEN: true,
	}
	got := layers.Apply("你好 world")
	want := "你好 WORLD"
	if got != want {
		t.Fatalf("Apply = %q, want %q", got, want)
	}
}

func TestLoadPhraseTableMissingFileIsNotError(t *testing.T) {
	table, err := LoadPhraseTable(filepath.Join(t.TempDir(), "missing.txt"))
	if err != nil {
		t.Fatalf("expected missing file to be tolerated, got %v", err)
	}
	if len(table) != 0 {
		t.Fatalf("expected empty table, got %v", table)
	}
}
