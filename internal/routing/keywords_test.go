package routing

import (
	"reflect"
	"testing"
)

func TestNormalizeLowercasesAndStems(t *testing.T) {
	a := normalize("Scheduling a Visit")
	b := normalize("schedule a visit")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("stems differ: %v vs %v", a, b)
	}
}

func TestNormalizeStripsPunctuation(t *testing.T) {
	a := normalize("Cancel my appointment!!")
	b := normalize("cancel my appointment")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("stems differ: %v vs %v", a, b)
	}
}

func TestMultiWordTriggerRequiresContiguousRun(t *testing.T) {
	table, err := NewKeywordTable(map[string][]string{
		"scheduling": {},
		"qna":        {"side effect"},
	})
	if err != nil {
		t.Fatalf("build table: %v", err)
	}

	if _, hits, _ := table.vote(normalize("any side effects?")); hits != 1 {
		t.Errorf("contiguous phrase: qna hits = %d, want 1", hits)
	}
	if _, hits, _ := table.vote(normalize("the side of those effects")); hits != 0 {
		t.Errorf("scattered stems: qna hits = %d, want 0", hits)
	}
}

func TestDuplicateStemTriggersCountOnce(t *testing.T) {
	table, err := NewKeywordTable(map[string][]string{
		"scheduling": {"book", "booking"},
		"qna":        {},
	})
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	hits, _, evidence := table.vote(normalize("book me in"))
	if hits != 1 {
		t.Errorf("scheduling hits = %d, want 1 (book/booking share a stem)", hits)
	}
	if len(evidence) != 1 {
		t.Errorf("evidence entries = %d, want 1", len(evidence))
	}
}

func TestNewKeywordTableMissingLabel(t *testing.T) {
	if _, err := NewKeywordTable(map[string][]string{"scheduling": {"book"}}); err == nil {
		t.Fatal("expected error for table without qna label")
	}
}

func TestParseKeywordTable(t *testing.T) {
	table, err := ParseKeywordTable(`{"scheduling": ["book"], "qna": ["hours"]}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s, q, _ := table.vote(normalize("what are your hours")); s != 0 || q != 1 {
		t.Errorf("vote = (%d, %d), want (0, 1)", s, q)
	}

	if _, err := ParseKeywordTable(`not json`); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestDefaultTableMatchesSymptomAndPolicyLanguage(t *testing.T) {
	table := DefaultKeywordTable()

	s, q, _ := table.vote(normalize("I have a headache"))
	if s != 2 || q != 0 {
		t.Errorf("symptom message vote = (%d, %d), want (2, 0)", s, q)
	}

	s, q, _ = table.vote(normalize("Can I take antibiotics with alcohol?"))
	if s != 0 || q != 3 {
		t.Errorf("policy message vote = (%d, %d), want (0, 3)", s, q)
	}
}
