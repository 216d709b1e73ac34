package routing

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
)

// defaultTriggers is the fixed literal trigger list the table is rebuilt from
// on every process start. Scheduling covers booking language plus reported
// symptoms; qna covers informational, medication, and policy questions.
var defaultTriggers = map[string][]string{
	"scheduling": {
		"schedule",
		"appointment",
		"book",
		"booking",
		"doctor",
		"reschedule",
		"cancel",
		"visit",
		"slot",
		"openings",
		"available",
		"availability",
		"follow-up",
		"check-in",
		"see a doctor",
		"i have",
		"headache",
		"pain",
		"fever",
		"hurts",
		"feeling sick",
	},
	"qna": {
		"question",
		"query",
		"answer",
		"ask",
		"hours",
		"how",
		"what",
		"which",
		"when",
		"why",
		"side effect",
		"side effects",
		"dosage",
		"dose",
		"instruction",
		"policy",
		"coverage",
		"benefit",
		"copay",
		"cost",
		"price",
		"refill",
		"medication",
		"medicine",
		"antibiotic",
		"alcohol",
		"faq",
		"can i",
	},
}

type trigger struct {
	phrase string
	stems  []string
}

// KeywordTable maps the two intent labels to stem-normalized trigger phrases.
// It is immutable after construction and safe for concurrent readers.
type KeywordTable struct {
	scheduling []trigger
	qna        []trigger
}

// NewKeywordTable builds a table from raw trigger phrases keyed by
// "scheduling" and "qna". Phrases are stemmed with the same stemmer applied to
// incoming messages, so surface-form differences do not degrade matching.
func NewKeywordTable(triggers map[string][]string) (*KeywordTable, error) {
	sched, ok := triggers["scheduling"]
	if !ok {
		return nil, fmt.Errorf("routing: keyword table missing %q label", "scheduling")
	}
	qna, ok := triggers["qna"]
	if !ok {
		return nil, fmt.Errorf("routing: keyword table missing %q label", "qna")
	}
	t := &KeywordTable{
		scheduling: buildTriggers(sched),
		qna:        buildTriggers(qna),
	}
	return t, nil
}

// DefaultKeywordTable returns the built-in trigger table.
func DefaultKeywordTable() *KeywordTable {
	t, err := NewKeywordTable(defaultTriggers)
	if err != nil {
		panic(err) // defaultTriggers always carries both labels
	}
	return t
}

// ParseKeywordTable builds a table from a JSON document of the shape
// {"scheduling": [...], "qna": [...]}. Used for the config override.
func ParseKeywordTable(raw string) (*KeywordTable, error) {
	var triggers map[string][]string
	if err := json.Unmarshal([]byte(raw), &triggers); err != nil {
		return nil, fmt.Errorf("routing: parse keyword table: %w", err)
	}
	return NewKeywordTable(triggers)
}

// buildTriggers stems each phrase and drops duplicates that normalize to the
// same stem run ("book"/"booking"), so one stem never casts two votes.
func buildTriggers(phrases []string) []trigger {
	seen := make(map[string]struct{}, len(phrases))
	out := make([]trigger, 0, len(phrases))
	for _, p := range phrases {
		stems := normalize(p)
		if len(stems) == 0 {
			continue
		}
		key := strings.Join(stems, " ")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trigger{phrase: p, stems: stems})
	}
	return out
}

// normalize tokenizes on whitespace/punctuation, lowercases, and stems each token.
func normalize(text string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	stems := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.Trim(tok, "'")
		if tok == "" {
			continue
		}
		stems = append(stems, english.Stem(tok, false))
	}
	return stems
}

// vote counts, per intent, how many trigger phrases occur in the normalized
// message. Multi-word triggers must match as a contiguous run of stems.
func (t *KeywordTable) vote(stems []string) (schedulingHits, qnaHits int, evidence []Evidence) {
	for _, tr := range t.scheduling {
		if containsRun(stems, tr.stems) {
			schedulingHits++
			evidence = append(evidence, Evidence{Intent: IntentAppointment, Trigger: tr.phrase, Stems: tr.stems})
		}
	}
	for _, tr := range t.qna {
		if containsRun(stems, tr.stems) {
			qnaHits++
			evidence = append(evidence, Evidence{Intent: IntentQnA, Trigger: tr.phrase, Stems: tr.stems})
		}
	}
	return schedulingHits, qnaHits, evidence
}

func containsRun(haystack, run []string) bool {
	if len(run) == 0 || len(run) > len(haystack) {
		return false
	}
	for i := 0; i+len(run) <= len(haystack); i++ {
		match := true
		for j := range run {
			if haystack[i+j] != run[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
