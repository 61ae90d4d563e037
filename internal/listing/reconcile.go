package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

// RecordError is the failure of one record's update during Commit.
type RecordError struct {
	RecordID string
	Err      error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("update %s: %v", e.RecordID, e.Err)
}

func (e RecordError) Unwrap() error { return e.Err }

// BatchError reports the records whose updates failed during Commit.
// Updates that succeeded in the same batch are not rolled back.
type BatchError struct {
	Failed    []RecordError
	Succeeded int
}

func (e *BatchError) Error() string {
	ids := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		ids[i] = f.RecordID
	}
	return fmt.Sprintf("%d of %d record updates failed (%s)",
		len(e.Failed), len(e.Failed)+e.Succeeded, strings.Join(ids, ", "))
}

// Unwrap exposes every per-record error to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	out := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		out[i] = f
	}
	return out
}

type updateResult struct {
	delta   types.FieldDelta
	version int
	err     error
}

// Commit submits every staged edit as one independent update call per
// record. All calls are issued without waiting for each other and Commit
// waits for every call to settle; one failure does not cancel the rest.
//
// When every update succeeds the staged edits are cleared and the store
// reloads from its source. When some fail, the succeeded records have
// their changes applied to the loaded set and their drafts dropped, the
// failed drafts stay staged, nothing is rolled back, no reload happens,
// and a *BatchError is returned. Commit with nothing staged is a no-op.
func (s *Store) Commit(ctx context.Context) error {
	s.mu.Lock()
	results := make([]updateResult, 0, len(s.order))
	for _, id := range s.order {
		edit := s.pending[id]
		results = append(results, updateResult{delta: edit.delta.Clone(), version: edit.version})
	}
	s.mu.Unlock()

	if len(results) == 0 {
		return nil
	}

	base := pool.New()
	if s.maxUpdates > 0 {
		base = base.WithMaxGoroutines(s.maxUpdates)
	}
	p := base.WithContext(ctx)
	for i := range results {
		p.Go(func(ctx context.Context) error {
			_, err := s.updater.UpdateRecord(ctx, results[i].delta)
			results[i].err = err
			return err
		})
	}
	// Per-record outcomes are read from results; the joined error adds nothing.
	_ = p.Wait()

	var failed []RecordError
	s.mu.Lock()
	for _, r := range results {
		id := r.delta.RecordID
		if r.err != nil {
			failed = append(failed, RecordError{RecordID: id, Err: r.err})
			continue
		}
		s.applyLocked(r.delta)
		if edit, ok := s.pending[id]; ok && edit.version == r.version {
			s.dropPendingLocked(id)
		}
	}
	s.recomputeLocked()
	view := s.viewLocked()
	s.mu.Unlock()
	s.notify(view)

	if len(failed) > 0 {
		batchErr := &BatchError{Failed: failed, Succeeded: len(results) - len(failed)}
		for _, f := range failed {
			s.logger.Error("account update failed",
				zap.String("record_id", f.RecordID),
				zap.Error(f.Err))
		}
		return batchErr
	}

	s.logger.Info("account updates committed", zap.Int("records", len(results)))
	if err := s.Load(ctx); err != nil {
		return fmt.Errorf("reload after commit: %w", err)
	}
	return nil
}

// applyLocked writes a committed delta into the loaded record. The caller
// must hold s.mu.
func (s *Store) applyLocked(delta types.FieldDelta) {
	for i := range s.all {
		if s.all[i].ID != delta.RecordID {
			continue
		}
		if err := s.all[i].Apply(delta.Changes); err != nil {
			s.logger.Warn("apply committed delta",
				zap.String("record_id", delta.RecordID),
				zap.Error(err))
		}
		return
	}
}

// dropPendingLocked removes a staged delta. The caller must hold s.mu.
func (s *Store) dropPendingLocked(id string) {
	delete(s.pending, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// IsBatchError reports whether err carries per-record update failures and
// returns them.
func IsBatchError(err error) (*BatchError, bool) {
	var batchErr *BatchError
	if errors.As(err, &batchErr) {
		return batchErr, true
	}
	return nil, false
}
