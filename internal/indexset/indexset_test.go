package indexset

import "testing"

func TestAddContains(t *testing.T) {
	s := New(100)
	s.Add(3)
	s.Add(65)
	if !s.Contains(3) || !s.Contains(65) {
		t.Fatalf("expected 3 and 65 to be present")
	}
	if s.Contains(4) {
		t.Fatalf("4 should not be present")
	}
}

func TestRemoveClearsBit(t *testing.T) {
	s := New(10)
	s.Add(2)
	s.Remove(2)
	if s.Contains(2) {
		t.Fatalf("2 should have been removed")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := New(10)
	s.Add(1)
	c := s.Clone()
	c.Add(2)
	if s.Contains(2) {
		t.Fatalf("mutating the clone should not affect the original")
	}
	if !c.Contains(1) {
		t.Fatalf("clone should retain original bits")
	}
}

func TestUnion(t *testing.T) {
	a := New(10)
	a.Add(1)
	b := New(10)
	b.Add(2)
	u := a.Union(b)
	if !u.Contains(1) || !u.Contains(2) {
		t.Fatalf("union should contain bits from both sets")
	}
	if a.Contains(2) {
		t.Fatalf("union should not mutate its receiver")
	}
}

func TestIncludesSuperset(t *testing.T) {
	a := New(10)
	a.Add(1)
	a.Add(2)
	b := New(10)
	b.Add(1)
	if !a.Includes(b) {
		t.Fatalf("a should include b")
	}
	if b.Includes(a) {
		t.Fatalf("b should not include a")
	}
}

func TestEqual(t *testing.T) {
	a := New(10)
	a.Add(5)
	b := New(10)
	b.Add(5)
	if !a.Equal(b) {
		t.Fatalf("equal sets should compare equal")
	}
	b.Add(6)
	if a.Equal(b) {
		t.Fatalf("sets with different bits should not compare equal")
	}
}

func TestCardinalityAndSliceAcrossWordBoundary(t *testing.T) {
	s := New(200)
	indices := []int{0, 1, 63, 64, 65, 127, 128, 199}
	for _, i := range indices {
		s.Add(i)
	}
	if s.Cardinality() != len(indices) {
		t.Fatalf("expected cardinality %d, got %d", len(indices), s.Cardinality())
	}
	got := s.Slice()
	if len(got) != len(indices) {
		t.Fatalf("expected %d indices, got %d", len(indices), len(got))
	}
	for i := range got {
		if got[i] != indices[i] {
			t.Fatalf("expected ascending order %v, got %v", indices, got)
		}
	}
}

func TestEachVisitsAscending(t *testing.T) {
	s := New(10)
	s.Add(7)
	s.Add(2)
	s.Add(9)
	var visited []int
	s.Each(func(i int) { visited = append(visited, i) })
	want := []int{2, 7, 9}
	if len(visited) != len(want) {
		t.Fatalf("expected %v, got %v", want, visited)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, visited)
		}
	}
}
