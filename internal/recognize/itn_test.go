package recognize

import "testing"

// TestChineseToNum mirrors original_source's
// server/tests/unit/test_chinese_itn.py assertions case by case (the
// Python suite's mock-based exception-handling test has no Go equivalent
// and is omitted).
func TestChineseToNum(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		// test_basic_conversion
		{"basic digits", "一二三", "123"},
		{"basic decimal", "幺二三点四五六", "123.456"},

		// test_value_conversion
		{"hundreds value", "一百二十三", "123"},
		{"ten-thousands value", "十二万三千四百五十六", "123456"},
		{"value decimal", "一千二百三十四点五六", "1234.56"},
		{"zero gap", "一百零五", "105"},
		{"bare decimal untouched", "点一", "点一"},

		// test_percent_conversion
		{"percent", "百分之五十", "50%"},
		{"percent decimal", "百分之十二点五", "12.5%"},

		// test_fraction_conversion
		{"fraction", "三分之二", "2/3"},

		// test_ratio_conversion
		{"ratio", "一比二", "1:2"},
		{"ratio decimal", "三比四点五", "3:4.5"},

		// test_time_conversion
		{"time hms", "十二点三十四分五十六秒", "12:34:56"},
		{"time hm", "十二点三十四分", "12:34"},
		{"time ms", "十二分三十四秒", "12:34"},

		// test_date_conversion
		{"year month only untouched", "二零二五年十月", "二零二五年十月"},
		{"full date with day", "二零二五年十月五日", "2025年10月5日"},
		{"full date with hao", "二零二五年十月五号", "2025年10月5号"},

		// test_idiom_filter
		{"idiom 1", "乱七八糟", "乱七八糟"},
		{"idiom 2", "五零四散", "五零四散"},
		{"idiom 3", "五十步笑百步", "五十步笑百步"},

		// test_unit_stripping
		{"unit zhi", "一百二十三只", "123只"},
		{"unit ge", "一二三个", "123个"},

		// test_single_one
		{"lone one", "一", "一"},
		{"lone one ge", "一个", "一个"},

		// test_edge_cases
		{"empty", "", ""},
		{"trailing dot untouched", "一二三点", "一二三点"},
		{"leading ascii", "abc一二三", "abc123"},
		{"trailing ascii", "一二三abc", "123abc"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := chineseToNum(c.in); got != c.want {
				t.Errorf("chineseToNum(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestNewChineseITNAppliesConversion(t *testing.T) {
	itn := NewChineseITN()
	if got := itn.Apply("一二三"); got != "123" {
		t.Fatalf("Apply(%q) = %q, want %q", "一二三", got, "123")
	}
}
