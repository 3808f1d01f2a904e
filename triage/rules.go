package triage

import "fmt"

// Stable button identifiers. Callers key follow-up execution off these.
const (
	ButtonApplyHighConf       = "apply_high_conf"
	ButtonLabelActionRequired = "label_action_required"
	ButtonMarkFYIRead         = "mark_fyi_read"
	ButtonArchiveSafe         = "archive_safe"
)

// RuleOptions configures the action rule engine. Defaults match the stock
// triage workflow; everything is explicit so the engine stays pure.
type RuleOptions struct {
	// ConfidenceThreshold gates the high-confidence cleanup rule.
	ConfidenceThreshold float64
	// ArchiveFolder is the fixed destination proposed by the archive rule.
	ArchiveFolder string
	// ActionLabel is the label proposed for action-required items.
	ActionLabel string
}

// ProposeActions maps a classification onto a list of advisory bulk-action
// buttons. Rules are evaluated independently and their buttons are additive;
// a rule whose source set is empty contributes nothing. Button lists are
// computed fresh on every call and never cached.
func ProposeActions(c Classification, optFns ...func(o *RuleOptions)) []ActionButton {
	opts := RuleOptions{
		ConfidenceThreshold: 0.90,
		ArchiveFolder:       "Archive",
		ActionLabel:         string(CategoryActionRequired),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var buttons []ActionButton

	// Rule 1: high-confidence members of the low-attention categories get a
	// one-shot "label & mark read" cleanup, grouped per category so the
	// executor can apply the right label without re-deriving anything.
	highConf := ButtonArgs{MarkRead: true}
	for _, cat := range []Category{CategoryNewsletter, CategoryNotification, CategoryCleanup} {
		for _, item := range c.Items(cat) {
			if item.Confidence < opts.ConfidenceThreshold {
				continue
			}
			highConf.UIDs = append(highConf.UIDs, item.UID)
			if highConf.ByCategory == nil {
				highConf.ByCategory = make(map[Category][]uint32)
			}
			highConf.ByCategory[cat] = append(highConf.ByCategory[cat], item.UID)
		}
	}
	if len(highConf.UIDs) > 0 {
		buttons = append(buttons, ActionButton{
			ID:     ButtonApplyHighConf,
			Label:  fmt.Sprintf("Apply labels & mark %d read", len(highConf.UIDs)),
			Action: "apply_labels_mark_read",
			Args:   highConf,
			Style:  StylePrimary,
			Icon:   "sparkles",
		})
	}

	// Rule 2: everything action-required gets a labeling proposal,
	// regardless of confidence.
	if uids := uidsOf(c.Items(CategoryActionRequired)); len(uids) > 0 {
		buttons = append(buttons, ActionButton{
			ID:     ButtonLabelActionRequired,
			Label:  fmt.Sprintf("Label %d as %s", len(uids), opts.ActionLabel),
			Action: "add_label",
			Args:   ButtonArgs{UIDs: uids, Label: opts.ActionLabel},
			Style:  StyleSecondary,
			Icon:   "tag",
		})
	}

	// Rule 3: FYI items get a mark-read proposal.
	if uids := uidsOf(c.Items(CategoryFYI)); len(uids) > 0 {
		buttons = append(buttons, ActionButton{
			ID:     ButtonMarkFYIRead,
			Label:  fmt.Sprintf("Mark %d FYI read", len(uids)),
			Action: "mark_read",
			Args:   ButtonArgs{UIDs: uids, MarkRead: true},
			Style:  StyleSecondary,
			Icon:   "mail-open",
		})
	}

	// Rule 4: a non-empty cleanup category triggers an archive proposal to a
	// fixed folder. The uid set covers the full cleanup and newsletter sets,
	// independent of rule 1's confidence filter.
	if archive := uidsOf(c.Items(CategoryCleanup)); len(archive) > 0 {
		archive = append(archive, uidsOf(c.Items(CategoryNewsletter))...)
		buttons = append(buttons, ActionButton{
			ID:     ButtonArchiveSafe,
			Label:  fmt.Sprintf("Archive %d safe messages", len(archive)),
			Action: "archive",
			Args:   ButtonArgs{UIDs: archive, Folder: opts.ArchiveFolder},
			Style:  StyleSecondary,
			Icon:   "archive",
		})
	}

	return buttons
}

func uidsOf(items []Item) []uint32 {
	if len(items) == 0 {
		return nil
	}
	uids := make([]uint32, len(items))
	for i, item := range items {
		uids[i] = item.UID
	}
	return uids
}
