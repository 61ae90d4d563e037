package types

// FieldDelta is one pending edit: the changed fields of a single record.
type FieldDelta struct {
	RecordID string        `json:"id"`
	Changes  map[Field]any `json:"changes"`
}

// NewFieldDelta returns an empty delta for the record.
func NewFieldDelta(recordID string) FieldDelta {
	return FieldDelta{RecordID: recordID, Changes: make(map[Field]any)}
}

// Merge folds other's changes into d. Later values win. Merging deltas
// for different records returns ErrInvalidID.
func (d *FieldDelta) Merge(other FieldDelta) error {
	if other.RecordID != d.RecordID {
		return ErrInvalidID
	}
	if d.Changes == nil {
		d.Changes = make(map[Field]any, len(other.Changes))
	}
	for field, value := range other.Changes {
		d.Changes[field] = value
	}
	return nil
}

// Clone returns a copy with its own change map.
func (d FieldDelta) Clone() FieldDelta {
	out := FieldDelta{RecordID: d.RecordID, Changes: make(map[Field]any, len(d.Changes))}
	for field, value := range d.Changes {
		out.Changes[field] = value
	}
	return out
}
