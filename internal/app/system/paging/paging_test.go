package paging

import (
	"net/http/httptest"
	"testing"
)

func TestLimitPlusOne(t *testing.T) {
	want := int64(PageSize + 1)
	if got := LimitPlusOne(); got != want {
		t.Errorf("LimitPlusOne() = %d, want %d", got, want)
	}
}

func TestParseStart(t *testing.T) {
	tests := []struct {
		target string
		want   int
	}{
		{"/candidates", 1},
		{"/candidates?start=51", 51},
		{"/candidates?start=0", 1},
		{"/candidates?start=-3", 1},
		{"/candidates?start=abc", 1},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", tt.target, nil)
		if got := ParseStart(r); got != tt.want {
			t.Errorf("ParseStart(%q) = %d, want %d", tt.target, got, tt.want)
		}
	}
}

func TestSkip(t *testing.T) {
	if got := Skip(1); got != 0 {
		t.Errorf("Skip(1) = %d, want 0", got)
	}
	if got := Skip(51); got != 50 {
		t.Errorf("Skip(51) = %d, want 50", got)
	}
	if got := Skip(0); got != 0 {
		t.Errorf("Skip(0) = %d, want 0", got)
	}
}

func TestTrimPage(t *testing.T) {
	tests := []struct {
		name     string
		rows     []int
		wantLen  int
		wantNext bool
	}{
		{"short page", []int{1, 2, 3}, 3, false},
		{"exact page", make([]int, PageSize), PageSize, false},
		{"look-ahead row", make([]int, PageSize+1), PageSize, true},
		{"empty", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := tt.rows
			got := TrimPage(&rows)
			if got != tt.wantNext {
				t.Errorf("hasNext = %v, want %v", got, tt.wantNext)
			}
			if len(rows) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(rows), tt.wantLen)
			}
		})
	}
}

func TestComputeRange(t *testing.T) {
	tests := []struct {
		name    string
		start   int
		shown   int
		hasNext bool
		want    Range
	}{
		{
			name:  "no results",
			start: 1,
			want:  Range{PrevStart: 1, NextStart: 1},
		},
		{
			name:    "first page",
			start:   1,
			shown:   PageSize,
			hasNext: true,
			want:    Range{Start: 1, End: PageSize, PrevStart: 1, NextStart: PageSize + 1, HasNext: true},
		},
		{
			name:  "second page partial",
			start: PageSize + 1,
			shown: 10,
			want:  Range{Start: PageSize + 1, End: PageSize + 10, PrevStart: 1, NextStart: PageSize + 11, HasPrev: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeRange(tt.start, tt.shown, tt.hasNext); got != tt.want {
				t.Errorf("ComputeRange = %+v, want %+v", got, tt.want)
			}
		})
	}
}
