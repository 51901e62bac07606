package pipeline

import "gamenews/pkg/domain"

// Classification is the change-detection verdict for one discovered item
type Classification int

// classification outcomes
const (
	New Classification = iota
	Modified
	Unchanged
)

// String implements fmt.Stringer
func (c Classification) String() string {
	switch c {
	case New:
		return "new"
	case Modified:
		return "modified"
	case Unchanged:
		return "unchanged"
	}
	return "unknown"
}

// Classify compares a discovered record against its stored state. It is
// a pure function of its inputs: no wall clock, identical inputs always
// yield the identical verdict. Items present in state but absent from
// the discovery batch are left untouched, there is no implicit expiry.
func Classify(rec domain.RawDiscoveryRecord, stored *domain.StateRecord) Classification {
	if stored == nil {
		return New
	}
	if rec.EffectiveTS() > stored.LastModified {
		return Modified
	}
	return Unchanged
}
