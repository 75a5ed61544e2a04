package rangelock

import "testing"

// ============================================================================
// classifyOverlap: the six topology cases (spec §4.1)
// ============================================================================

func TestClassifyOverlap_Disjoint(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name                   string
		aStart, aEnd, bStart, bEnd int64
	}{
		{"left of", 0, 9, 10, 19},
		{"right of", 10, 19, 0, 9},
		{"touches EOF on other side", 0, 9, 10, EOF},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := classifyOverlap(c.aStart, c.aEnd, c.bStart, c.bEnd); got != caseDisjoint {
				t.Fatalf("classifyOverlap(%d,%d,%d,%d) = %v, want caseDisjoint", c.aStart, c.aEnd, c.bStart, c.bEnd, got)
			}
		})
	}
}

func TestClassifyOverlap_Equal(t *testing.T) {
	t.Parallel()

	if got := classifyOverlap(10, 20, 10, 20); got != caseEqual {
		t.Fatalf("got %v, want caseEqual", got)
	}
	if got := classifyOverlap(0, EOF, 0, EOF); got != caseEqual {
		t.Fatalf("EOF-to-EOF: got %v, want caseEqual", got)
	}
}

func TestClassifyOverlap_ExistingContains(t *testing.T) {
	t.Parallel()

	if got := classifyOverlap(0, 99, 10, 20); got != caseExistingContains {
		t.Fatalf("got %v, want caseExistingContains", got)
	}
	// flush with one edge still counts.
	if got := classifyOverlap(0, 20, 0, 10); got != caseExistingContains {
		t.Fatalf("flush-start: got %v, want caseExistingContains", got)
	}
	if got := classifyOverlap(0, EOF, 50, 100); got != caseExistingContains {
		t.Fatalf("EOF existing: got %v, want caseExistingContains", got)
	}
}

func TestClassifyOverlap_RequestContains(t *testing.T) {
	t.Parallel()

	if got := classifyOverlap(10, 20, 0, 99); got != caseRequestContains {
		t.Fatalf("got %v, want caseRequestContains", got)
	}
}

func TestClassifyOverlap_ExistingStartsBefore(t *testing.T) {
	t.Parallel()

	// existing [0,15], request [10,30]: existing starts before, ends inside.
	if got := classifyOverlap(0, 15, 10, 30); got != caseExistingStartsBefore {
		t.Fatalf("got %v, want caseExistingStartsBefore", got)
	}
}

func TestClassifyOverlap_ExistingStartsInside(t *testing.T) {
	t.Parallel()

	// existing [10,30], request [0,15]: existing starts inside, ends after.
	if got := classifyOverlap(10, 30, 0, 15); got != caseExistingStartsInside {
		t.Fatalf("got %v, want caseExistingStartsInside", got)
	}
}

func TestClassifyOverlap_AdjacentNotOverlapping(t *testing.T) {
	t.Parallel()

	// Byte ranges that merely touch (one ends where the other begins minus
	// one) are disjoint; lockf never coalesces adjacent ranges.
	if got := classifyOverlap(0, 9, 10, 19); got != caseDisjoint {
		t.Fatalf("adjacent ranges should be disjoint, got %v", got)
	}
}
