package model

import (
	"reflect"
	"testing"
)

func TestSegmentListCoalesce(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   SegmentList
		want SegmentList
	}{
		{
			name: "overlapping segments merge",
			in:   SegmentList{{0, 10}, {5, 15}},
			want: SegmentList{{0, 15}},
		},
		{
			name: "abutting segments merge",
			in:   SegmentList{{0, 10}, {10, 20}},
			want: SegmentList{{0, 20}},
		},
		{
			name: "disjoint segments stay apart",
			in:   SegmentList{{20, 30}, {0, 10}},
			want: SegmentList{{0, 10}, {20, 30}},
		},
		{
			name: "empty",
			in:   nil,
			want: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.in.Coalesce()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Coalesce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSegmentListContains(t *testing.T) {
	t.Parallel()

	l := SegmentList{{100, 200}}

	if !l.Contains(150) {
		t.Error("150 should be inside [100, 200)")
	}
	if l.Contains(250) {
		t.Error("250 should be outside [100, 200)")
	}
	if l.Contains(200) {
		t.Error("200 should be outside the half-open interval")
	}
	if !l.Contains(100) {
		t.Error("100 should be inside the half-open interval")
	}
}

func TestSegmentListIntersect(t *testing.T) {
	t.Parallel()

	a := SegmentList{{0, 100}, {200, 300}}
	b := SegmentList{{50, 250}}

	got := a.Intersect(b)
	want := SegmentList{{50, 100}, {200, 250}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Intersect = %v, want %v", got, want)
	}

	if got.Duration() != 100 {
		t.Errorf("Duration = %v, want 100", got.Duration())
	}
}

func TestSegmentListUnion(t *testing.T) {
	t.Parallel()

	a := SegmentList{{0, 10}}
	b := SegmentList{{5, 20}, {30, 40}}

	got := a.Union(b)
	want := SegmentList{{0, 20}, {30, 40}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Union = %v, want %v", got, want)
	}
}

func TestDataQualityFlagIFO(t *testing.T) {
	t.Parallel()

	f := &DataQualityFlag{Name: "H1:DMT-ANALYSIS_READY:1"}
	if got := f.IFO(); got != "H1" {
		t.Errorf("IFO() = %q, want H1", got)
	}

	bare := &DataQualityFlag{Name: "NONAME"}
	if got := bare.IFO(); got != "" {
		t.Errorf("IFO() = %q, want empty", got)
	}
}
