package chat

import "github.com/kidzonehq/kidzone-backend/internal/models"

// Reconcile merges a confirmed snapshot with the pending optimistic
// messages for the same conversation. It is a pure function of its
// inputs:
//
//   - every pending message whose clientId now appears in confirmed is
//     dropped (the store has echoed it back),
//   - the rendered list is confirmed followed by the survivors, so
//     store ordering is preserved and local messages, which are newer
//     than anything confirmed, stay at the tail,
//   - applying it twice with the same snapshot yields the same result.
//
// No clientId ever appears twice in rendered.
func Reconcile(confirmed, pending []models.Message) (rendered, stillPending []models.Message) {
	echoed := make(map[string]struct{}, len(confirmed))
	for _, m := range confirmed {
		if m.ClientID != "" {
			echoed[m.ClientID] = struct{}{}
		}
	}

	stillPending = make([]models.Message, 0, len(pending))
	for _, p := range pending {
		if _, ok := echoed[p.ClientID]; !ok {
			stillPending = append(stillPending, p)
		}
	}

	rendered = make([]models.Message, 0, len(confirmed)+len(stillPending))
	rendered = append(rendered, confirmed...)
	rendered = append(rendered, stillPending...)
	return rendered, stillPending
}
