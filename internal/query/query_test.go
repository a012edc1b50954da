package query

import (
	"slices"
	"testing"
)

type row struct {
	name  string
	grade string
	n     int
}

var rows = []row{
	{"Ali", "A", 3},
	{"Ali", "B", 4},
	{"Sara", "A", 4},
	{"Sara", "B", 3},
	{"Ahmed", "C", 3},
	{"Ahmed", "A", 3},
}

func TestFilterMapPreserveOrder(t *testing.T) {
	got := slices.Collect(Map(Filter(slices.Values(rows), func(r row) bool { return r.grade == "A" }), func(r row) string { return r.name }))
	want := []string{"Ali", "Sara", "Ahmed"}
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFilterMapSkipsRejected(t *testing.T) {
	got := slices.Collect(FilterMap(slices.Values(rows), func(r row) (int, bool) { return r.n, r.name == "Sara" }))
	if !slices.Equal(got, []int{4, 3}) {
		t.Fatalf("unexpected %v", got)
	}
}

func TestEarlyBreakStopsIteration(t *testing.T) {
	pulled := 0
	src := func(yield func(row) bool) {
		for _, r := range rows {
			pulled++
			if !yield(r) {
				return
			}
		}
	}
	for range Filter(src, func(row) bool { return true }) {
		break
	}
	if pulled != 1 {
		t.Fatalf("expected lazy evaluation, pulled %d", pulled)
	}
}

func TestDistinctKeepsFirstSeen(t *testing.T) {
	names := Map(slices.Values(rows), func(r row) string { return r.name })
	got := slices.Collect(Distinct(names))
	if !slices.Equal(got, []string{"Ali", "Sara", "Ahmed"}) {
		t.Fatalf("unexpected %v", got)
	}
	byGrade := slices.Collect(DistinctBy(slices.Values(rows), func(r row) string { return r.grade }))
	if len(byGrade) != 3 || byGrade[2].name != "Ahmed" {
		t.Fatalf("unexpected %v", byGrade)
	}
}

func TestGroupBySortsKeysAndDedupes(t *testing.T) {
	dup := append(slices.Clone(rows), row{"Ali", "A", 1})
	groups := GroupBy(slices.Values(dup), func(r row) string { return r.grade }, func(r row) string { return r.name })
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].Key != "A" || !slices.Equal(groups[0].Values, []string{"Ali", "Sara", "Ahmed"}) {
		t.Fatalf("unexpected first group %+v", groups[0])
	}
	if groups[2].Key != "C" || !slices.Equal(groups[2].Values, []string{"Ahmed"}) {
		t.Fatalf("unexpected last group %+v", groups[2])
	}
}

func TestSortStableBy(t *testing.T) {
	asc := SortStableBy(slices.Values(rows), func(r row) int { return r.n }, Asc)
	if asc[0].name != "Ali" || asc[0].grade != "A" || asc[1].name != "Sara" {
		t.Fatalf("expected stable ascending order, got %v", asc)
	}
	desc := SortStableBy(slices.Values(rows), func(r row) int { return r.n }, Desc)
	if desc[0].name != "Ali" || desc[0].grade != "B" || desc[1].name != "Sara" || desc[1].grade != "A" {
		t.Fatalf("expected stable descending order, got %v", desc)
	}
}

func TestAggregates(t *testing.T) {
	src := slices.Values(rows)
	if Count(src) != 6 {
		t.Fatalf("count")
	}
	if Sum(src, func(r row) int { return r.n }) != 20 {
		t.Fatalf("sum")
	}
	mean, n, ok := Mean(slices.Values([]int{20, 22, 19}), func(v int) int { return v })
	if !ok || n != 3 || Round(mean, 1) != 20.3 {
		t.Fatalf("unexpected mean %v %d %v", mean, n, ok)
	}
	if _, _, ok := Mean(slices.Values([]int{}), func(v int) int { return v }); ok {
		t.Fatalf("expected empty mean to report !ok")
	}
	lo, hi, ok := MinMax(src, func(r row) int { return r.n })
	if !ok || lo != 3 || hi != 4 {
		t.Fatalf("unexpected minmax %d %d", lo, hi)
	}
	best, ok := MaxBy(src, func(r row) int { return r.n })
	if !ok || best.name != "Ali" || best.grade != "B" {
		t.Fatalf("expected first max, got %+v", best)
	}
}

func TestFirstAndAny(t *testing.T) {
	r, ok := First(slices.Values(rows), func(r row) bool { return r.grade == "C" })
	if !ok || r.name != "Ahmed" {
		t.Fatalf("unexpected first %+v", r)
	}
	if Any(slices.Values(rows), func(r row) bool { return r.grade == "F" }) {
		t.Fatalf("did not expect a match")
	}
}

func TestRound(t *testing.T) {
	cases := map[float64]float64{20.333: 20.3, 20.25: 20.3, 3.333: 3.3, -1.25: -1.3, 0: 0}
	for in, want := range cases {
		if got := Round(in, 1); got != want {
			t.Fatalf("round %v: expected %v, got %v", in, want, got)
		}
	}
}
