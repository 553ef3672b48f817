package learnstore_test

import (
	"errors"
	"math"
	"testing"

	"github.com/authenticwalk/patternbank/internal/learnstore"
)

// link reinforces a cause→effect edge with the default link type.
func link(t *testing.T, s *learnstore.Store, cause, effect string, success bool) *learnstore.CausalLink {
	t.Helper()
	l, err := s.AddOrReinforceLink(cause, effect, "", success)
	if err != nil {
		t.Fatalf("AddOrReinforceLink(%q, %q) error: %v", cause, effect, err)
	}
	return l
}

func TestAddOrReinforceLink_Create(t *testing.T) {
	s := newTestStore(t)

	l := link(t, s, "missing index", "slow query", true)
	if math.Abs(l.Confidence-0.55) > 1e-9 {
		t.Errorf("first success confidence = %v, want 0.55", l.Confidence)
	}
	if l.EvidenceCount != 1 {
		t.Errorf("evidence_count = %d, want 1", l.EvidenceCount)
	}
	if l.LinkType != "causal" {
		t.Errorf("link_type = %q, want causal", l.LinkType)
	}

	l2 := link(t, s, "missing lock", "data race", false)
	if math.Abs(l2.Confidence-0.45) > 1e-9 {
		t.Errorf("first failure confidence = %v, want 0.45", l2.Confidence)
	}
}

func TestAddOrReinforceLink_Reinforce(t *testing.T) {
	s := newTestStore(t)

	l := link(t, s, "stale cache", "wrong response", true)
	l = link(t, s, "stale cache", "wrong response", true)
	// 0.55*0.9 + 0.1 = 0.595
	if math.Abs(l.Confidence-0.595) > 1e-9 {
		t.Errorf("second success confidence = %v, want 0.595", l.Confidence)
	}
	if l.EvidenceCount != 2 {
		t.Errorf("evidence_count = %d, want 2", l.EvidenceCount)
	}

	l = link(t, s, "stale cache", "wrong response", false)
	// 0.595*0.9 = 0.5355
	if math.Abs(l.Confidence-0.5355) > 1e-9 {
		t.Errorf("failure blend = %v, want 0.5355", l.Confidence)
	}
	if l.EvidenceCount != 3 {
		t.Errorf("evidence_count = %d, want 3", l.EvidenceCount)
	}
}

func TestAddOrReinforceLink_DistinctByType(t *testing.T) {
	s := newTestStore(t)

	a, err := s.AddOrReinforceLink("a", "b", "causal", true)
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.AddOrReinforceLink("a", "b", "correlation", true)
	if err != nil {
		t.Fatal(err)
	}
	if a.LinkID == b.LinkID {
		t.Error("different link types must be distinct edges")
	}
	if a.EvidenceCount != 1 || b.EvidenceCount != 1 {
		t.Errorf("evidence counts = %d/%d, want 1/1", a.EvidenceCount, b.EvidenceCount)
	}
}

func TestAddOrReinforceLink_InvalidInput(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.AddOrReinforceLink("", "effect", "", true); !errors.Is(err, learnstore.ErrInvalidInput) {
		t.Errorf("empty cause: error = %v, want ErrInvalidInput", err)
	}
	if _, err := s.AddOrReinforceLink("cause", "  ", "", true); !errors.Is(err, learnstore.ErrInvalidInput) {
		t.Errorf("empty effect: error = %v, want ErrInvalidInput", err)
	}
}

func TestChain_LinearPath(t *testing.T) {
	s := newTestStore(t)

	link(t, s, "A", "B", true) // 0.55
	link(t, s, "B", "C", true) // 0.55

	paths, err := s.Chain("C", 5)
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("got %d paths, want 1 (maximal path only)", len(paths))
	}
	p := paths[0]
	if len(p.Steps) != 3 || p.Steps[0] != "A" || p.Steps[1] != "B" || p.Steps[2] != "C" {
		t.Errorf("steps = %v, want [A B C]", p.Steps)
	}
	if math.Abs(p.MeanConfidence-0.55) > 1e-9 {
		t.Errorf("mean confidence = %v, want 0.55", p.MeanConfidence)
	}
}

func TestChain_BranchingOrderedByConfidence(t *testing.T) {
	s := newTestStore(t)

	// Two independent causes for the same effect, one stronger.
	link(t, s, "strong cause", "outage", true)
	link(t, s, "strong cause", "outage", true) // 0.595
	link(t, s, "weak cause", "outage", false)  // 0.45

	paths, err := s.Chain("outage", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Fatalf("got %d paths, want 2", len(paths))
	}
	if paths[0].Steps[0] != "strong cause" {
		t.Errorf("strongest path first: got %v", paths[0].Steps)
	}
	if paths[0].MeanConfidence < paths[1].MeanConfidence {
		t.Error("paths not ordered by mean confidence descending")
	}
}

func TestChain_CyclicDataTerminates(t *testing.T) {
	s := newTestStore(t)

	link(t, s, "A", "B", true)
	link(t, s, "B", "A", true)

	paths, err := s.Chain("A", 5)
	if err != nil {
		t.Fatalf("cyclic chain must terminate cleanly: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("got %d paths, want 1", len(paths))
	}
	if len(paths[0].Steps) != 2 || paths[0].Steps[0] != "B" || paths[0].Steps[1] != "A" {
		t.Errorf("steps = %v, want [B A] (cycle not revisited)", paths[0].Steps)
	}
}

func TestChain_DepthCap(t *testing.T) {
	s := newTestStore(t)

	// n0 → n1 → ... → n7: longer than the hard cap.
	nodes := []string{"n0", "n1", "n2", "n3", "n4", "n5", "n6", "n7"}
	for i := 0; i < len(nodes)-1; i++ {
		link(t, s, nodes[i], nodes[i+1], true)
	}

	paths, err := s.Chain("n7", 100) // request beyond the hard cap
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 {
		t.Fatalf("got %d paths, want 1", len(paths))
	}
	if len(paths[0].Links) != 5 {
		t.Errorf("path length = %d edges, want 5 (hard depth cap)", len(paths[0].Links))
	}
	if paths[0].Steps[len(paths[0].Steps)-1] != "n7" {
		t.Errorf("path must end at the queried effect, got %v", paths[0].Steps)
	}
}

func TestChain_NoIncomingEdges(t *testing.T) {
	s := newTestStore(t)

	link(t, s, "A", "B", true)
	paths, err := s.Chain("A", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 0 {
		t.Errorf("effect with no incoming edges: got %v, want no paths", paths)
	}
}

func TestLinksTo(t *testing.T) {
	s := newTestStore(t)

	link(t, s, "x", "crash", true)
	link(t, s, "x", "crash", true)
	link(t, s, "y", "crash", false)

	links, err := s.LinksTo("crash")
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 2 {
		t.Fatalf("got %d links, want 2", len(links))
	}
	if links[0].Cause != "x" {
		t.Errorf("strongest link first: got %q", links[0].Cause)
	}
}
