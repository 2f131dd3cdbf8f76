package classify

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		// parenthetical annotations, ASCII and full-width
		{"施工ノート入力（修正）", "施工ノート入力"},
		{"施工ノート入力(修正)", "施工ノート入力"},
		// trailing disambiguating letter
		{"施工ノートA", "施工ノート"},
		{"施工ノートＢ", "施工ノート"},
		// the last letter of a plain word survives
		{"データ", "データ"},
		// trailing 1-2 digit number
		{"作業2", "作業"},
		{"作業12", "作業"},
		// 4-digit years stay
		{"売上2024", "売上2024"},
		// abbreviation expansion
		{"TEL対応", "電話対応"},
		{"tel対応", "電話対応"},
		{"ＴＥＬ対応", "電話対応"},
		{"MTG資料", "会議資料"},
		{"mtg資料", "会議資料"},
		// combined
		{"  TEL対応（顧客）  ", "電話対応"},
		// whitespace collapse
		{"資料  作成", "資料 作成"},
		{"", ""},
	}
	for i, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("case %d: Normalize(%q) = %q, want %q", i, tc.in, got, tc.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"施工ノート入力（修正）",
		"TEL対応A",
		"作業12",
		"MTG定例（週次）",
		"売上2024",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize(%q): first %q, second %q", in, once, twice)
		}
	}
}

func TestStripAnnotations(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"施工ノート入力（修正）", "施工ノート入力"},
		{"施工ノートA", "施工ノート"},
		// abbreviations survive the light pass
		{"MTG定例", "MTG定例"},
		{"TEL対応", "TEL対応"},
		{"作業2", "作業2"}, // numbers survive too
	}
	for i, tc := range cases {
		if got := StripAnnotations(tc.in); got != tc.want {
			t.Errorf("case %d: StripAnnotations(%q) = %q, want %q", i, tc.in, got, tc.want)
		}
	}
}
