package export

import "testing"

func TestTrackerClampsAndOrders(t *testing.T) {
	var rec recorder
	tr := NewTracker(rec.fn)
	tr.Report("a", -5)
	tr.Report("b", 30)
	tr.Report("c", 20)
	tr.Report("d", 150)

	want := []int{0, 30, 30, 100}
	got := rec.percents()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("percents = %v, want %v", got, want)
		}
	}
	if rec.events[2].Message != "c" {
		t.Fatalf("message should be kept when percent is raised")
	}
	if tr.Last() != 100 {
		t.Fatalf("Last = %d", tr.Last())
	}
}

func TestTrackerSilentAfterStop(t *testing.T) {
	var rec recorder
	tr := NewTracker(rec.fn)
	tr.Report("a", 10)
	tr.Stop()
	tr.Func()("b", 20)
	if len(rec.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(rec.events))
	}
}

func TestTrackerNilCallback(t *testing.T) {
	tr := NewTracker(nil)
	tr.Report("a", 40)
	if tr.Last() != 40 {
		t.Fatalf("Last = %d", tr.Last())
	}
}

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"csv", CSV, true},
		{"JSON", JSON, true},
		{" Pdf ", PDF, true},
		{"xlsx", "", false},
	}
	for _, tc := range cases {
		got, err := ParseFormat(tc.in)
		if tc.ok != (err == nil) || got != tc.want {
			t.Fatalf("%q: got %q err=%v", tc.in, got, err)
		}
	}
	if PDF.Extension() != ".pdf" || CSV.ContentType() != "text/csv" || JSON.String() != "JSON" {
		t.Fatalf("unexpected format helpers")
	}
}
