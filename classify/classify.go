package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/inboxmesh/triage"
)

// Message is the unit of mail handed to a classifier: enough header and
// preview material to categorize without fetching bodies.
type Message struct {
	UID     uint32    `json:"uid"`
	From    string    `json:"from"`
	Subject string    `json:"subject"`
	Snippet string    `json:"snippet,omitempty"`
	Date    time.Time `json:"date,omitempty"`
}

// Classifier partitions mailbox messages into triage categories.
type Classifier interface {
	Classify(ctx context.Context, msgs []Message) (*triage.Classification, error)
}

// SystemPrompt instructs a model to emit strict JSON verdicts, one per
// message, using only the known category names.
const SystemPrompt = `You are an email triage assistant. Categorize every message into exactly one of:
action-required, fyi, newsletter, notification, cleanup.
Respond with JSON only, no prose, in the shape:
{"results":[{"uid":<number>,"category":"<name>","confidence":<0..1>}]}
Include every input uid exactly once.`

// RenderMessages formats messages as the user prompt consumed alongside
// SystemPrompt.
func RenderMessages(msgs []Message) string {
	var b strings.Builder
	b.WriteString("Messages:\n")
	for _, m := range msgs {
		fmt.Fprintf(&b, "- uid=%d from=%q subject=%q", m.UID, m.From, m.Subject)
		if m.Snippet != "" {
			fmt.Fprintf(&b, " snippet=%q", m.Snippet)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// verdict is one model-emitted classification row.
type verdict struct {
	UID        uint32  `json:"uid"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// resultEnvelope is the JSON document models are instructed to return.
type resultEnvelope struct {
	Results []verdict `json:"results"`
}

// highConfidenceThreshold separates summary counters into high-confidence
// and needs-review buckets. It matches the rule engine's default gate.
const highConfidenceThreshold = 0.90

// ParseResult decodes a model's JSON verdict document into a Classification.
// Unknown categories and uids not present in the input are errors: a verdict
// that cannot be trusted structurally cannot be trusted semantically either.
func ParseResult(data []byte, msgs []Message) (*triage.Classification, error) {
	var envelope resultEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("classify: decode result: %w", err)
	}

	known := make(map[uint32]struct{}, len(msgs))
	for _, m := range msgs {
		known[m.UID] = struct{}{}
	}

	c := &triage.Classification{ByCategory: make(map[triage.Category][]triage.Item)}
	for _, v := range envelope.Results {
		if _, ok := known[v.UID]; !ok {
			return nil, fmt.Errorf("classify: verdict for unknown uid %d", v.UID)
		}
		cat := triage.Category(v.Category)
		switch cat {
		case triage.CategoryActionRequired, triage.CategoryFYI, triage.CategoryNewsletter,
			triage.CategoryNotification, triage.CategoryCleanup:
		default:
			return nil, fmt.Errorf("classify: unknown category %q for uid %d", v.Category, v.UID)
		}

		c.ByCategory[cat] = append(c.ByCategory[cat], triage.Item{UID: v.UID, Confidence: v.Confidence})
		c.Summary.TotalProcessed++
		if v.Confidence >= highConfidenceThreshold {
			c.Summary.HighConfidence++
		} else {
			c.Summary.NeedsReview++
		}
	}

	return c, nil
}

// ExtractJSON trims prose or markdown fences a model may wrap around its
// JSON document, returning the first top-level object.
func ExtractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return text
	}
	return text[start : end+1]
}

// Mock is a deterministic in-memory Classifier useful for tests & examples.
type Mock struct {
	verdicts map[uint32]triage.Item
	category map[uint32]triage.Category
}

// NewMock constructs an empty Mock; register verdicts with Add.
func NewMock() *Mock {
	return &Mock{
		verdicts: make(map[uint32]triage.Item),
		category: make(map[uint32]triage.Category),
	}
}

// Add registers a canned verdict for a uid.
func (m *Mock) Add(uid uint32, cat triage.Category, confidence float64) *Mock {
	m.verdicts[uid] = triage.Item{UID: uid, Confidence: confidence}
	m.category[uid] = cat
	return m
}

// Classify implements Classifier. Messages without a registered verdict land
// in fyi with zero confidence.
func (m *Mock) Classify(_ context.Context, msgs []Message) (*triage.Classification, error) {
	c := &triage.Classification{ByCategory: make(map[triage.Category][]triage.Item)}
	for _, msg := range msgs {
		item, ok := m.verdicts[msg.UID]
		cat := m.category[msg.UID]
		if !ok {
			item = triage.Item{UID: msg.UID}
			cat = triage.CategoryFYI
		}
		c.ByCategory[cat] = append(c.ByCategory[cat], item)
		c.Summary.TotalProcessed++
		if item.Confidence >= highConfidenceThreshold {
			c.Summary.HighConfidence++
		} else {
			c.Summary.NeedsReview++
		}
	}
	return c, nil
}
