package triage

// Category partitions classified mailbox items by the handling they need.
type Category string

// Categories produced by classification. Every item lands in exactly one.
const (
	CategoryActionRequired Category = "action-required"
	CategoryFYI            Category = "fyi"
	CategoryNewsletter     Category = "newsletter"
	CategoryNotification   Category = "notification"
	CategoryCleanup        Category = "cleanup"
)

// Item is a single classified mailbox message: its IMAP uid plus the
// classifier's confidence in the assigned category.
type Item struct {
	UID        uint32  `json:"uid"`
	Confidence float64 `json:"confidence"`
}

// Summary carries pass-through counters computed during classification. The
// rule engine forwards it unchanged alongside proposed actions.
type Summary struct {
	HighConfidence int `json:"high_confidence"`
	NeedsReview    int `json:"needs_review"`
	TotalProcessed int `json:"total_processed"`
}

// Classification is the categorized output of a triage pass over a set of
// mailbox items, the input to the action rule engine.
type Classification struct {
	ByCategory map[Category][]Item `json:"by_category"`
	Summary    Summary             `json:"summary"`
}

// Items returns the category's members, nil when the category is absent.
func (c Classification) Items(cat Category) []Item {
	if c.ByCategory == nil {
		return nil
	}
	return c.ByCategory[cat]
}

// ButtonArgs holds everything needed to execute a proposed action without
// recomputing the classification: the exact uid set plus any label, folder
// or per-category grouping the executor needs.
type ButtonArgs struct {
	UIDs       []uint32              `json:"uids"`
	Label      string                `json:"label,omitempty"`
	Folder     string                `json:"folder,omitempty"`
	MarkRead   bool                  `json:"mark_read,omitempty"`
	ByCategory map[Category][]uint32 `json:"by_category,omitempty"`
}

// ActionButton is an advisory bulk-action proposal surfaced to the user.
// Nothing here is ever auto-executed; a button only becomes an operation when
// the user activates it and the caller performs the action it describes.
type ActionButton struct {
	ID     string     `json:"id"`
	Label  string     `json:"label"`
	Action string     `json:"action"`
	Args   ButtonArgs `json:"args"`
	Style  string     `json:"style"`
	Icon   string     `json:"icon,omitempty"`
}

// Button display styles.
const (
	StylePrimary   = "primary"
	StyleSecondary = "secondary"
)
