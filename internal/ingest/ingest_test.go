package ingest

import (
	"testing"
)

func row(date string) []string {
	return []string{date, "佐藤", "制作部", "通常業務", "施工", "施工ノート入力", "¥1,200", "2.5", "3,000", "完了"}
}

func TestRecordFromRow(t *testing.T) {
	rec, ok := RecordFromRow(row("2025-07-15"), "2025年7月請求")
	if !ok {
		t.Fatalf("expected row to parse")
	}
	if got := rec.WorkDate.String(); got != "2025-07-15" {
		t.Errorf("WorkDate = %q", got)
	}
	if rec.StaffName != "佐藤" || rec.Department != "制作部" {
		t.Errorf("staff fields: %+v", rec)
	}
	if rec.Category1 != "通常業務" || rec.Category2 != "施工" || rec.WorkName != "施工ノート入力" {
		t.Errorf("category fields: %+v", rec)
	}
	if rec.UnitPrice != 1200 {
		t.Errorf("UnitPrice = %d, want yen sign and comma stripped", rec.UnitPrice)
	}
	if rec.Quantity != 2.5 {
		t.Errorf("Quantity = %v", rec.Quantity)
	}
	if rec.TotalAmount != 3000 {
		t.Errorf("TotalAmount = %d", rec.TotalAmount)
	}
	if rec.Status != "完了" {
		t.Errorf("Status = %q", rec.Status)
	}
	if rec.SourceMonth != "2025年7月請求" {
		t.Errorf("SourceMonth = %q", rec.SourceMonth)
	}
}

func TestRecordFromRowDateLayouts(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2025-07-15", "2025-07-15"},
		{"2025/07/15", "2025-07-15"},
		{"2025/7/5", "2025-07-05"},
		{"2025-07-15 09:30:00", "2025-07-15"},
	}
	for i, tc := range cases {
		rec, ok := RecordFromRow(row(tc.in), "月請求")
		if !ok {
			t.Errorf("case %d (%q): expected parse", i, tc.in)
			continue
		}
		if got := rec.WorkDate.String(); got != tc.want {
			t.Errorf("case %d (%q): got %q, want %q", i, tc.in, got, tc.want)
		}
	}
}

func TestRecordFromRowSkips(t *testing.T) {
	// Empty and unparseable dates mark summary or spacer rows.
	for _, date := range []string{"", "  ", "合計", "2025年7月"} {
		if _, ok := RecordFromRow(row(date), "月請求"); ok {
			t.Errorf("date %q: expected skip", date)
		}
	}
}

func TestRecordFromRowShortRow(t *testing.T) {
	rec, ok := RecordFromRow([]string{"2025-07-15", "佐藤"}, "月請求")
	if !ok {
		t.Fatalf("short row with a valid date should parse")
	}
	if rec.WorkName != "" || rec.Quantity != 0 || rec.TotalAmount != 0 {
		t.Errorf("missing cells should zero out: %+v", rec)
	}
}

func TestParseInt(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1200", 1200},
		{"1,200", 1200},
		{"¥1,200", 1200},
		{"1200.0", 1200}, // formula output
		{"", 0},
		{"n/a", 0},
	}
	for i, tc := range cases {
		if got := parseInt(tc.in); got != tc.want {
			t.Errorf("case %d: parseInt(%q) = %d, want %d", i, tc.in, got, tc.want)
		}
	}
}

func TestParseFloat(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"2.5", 2.5},
		{"1,000.5", 1000.5},
		{"", 0},
		{"x", 0},
	}
	for i, tc := range cases {
		if got := parseFloat(tc.in); got != tc.want {
			t.Errorf("case %d: parseFloat(%q) = %v, want %v", i, tc.in, got, tc.want)
		}
	}
}
