package listing

import (
	"fmt"

	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

// ActivateRow handles a row action. The view-details action opens the
// record through the store's Navigator; any other action is ignored.
// Returns ErrNotFound if the record is not loaded.
func (s *Store) ActivateRow(recordID, action string) error {
	if action != types.ActionViewDetails {
		return nil
	}

	s.mu.Lock()
	found := false
	for _, a := range s.all {
		if a.ID == recordID {
			found = true
			break
		}
	}
	nav := s.navigator
	s.mu.Unlock()

	if !found {
		return fmt.Errorf("%w: %s", types.ErrNotFound, recordID)
	}
	if nav != nil {
		nav.OpenRecordView(recordID)
	}
	return nil
}
