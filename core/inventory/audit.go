package inventory

import "time"

// AuditTrail is the append-only history of an item. Entries are ordered by occurrence.
type AuditTrail []AuditLogEntry

func (a AuditTrail) Last() (AuditLogEntry, bool) {
	if len(a) == 0 {
		return AuditLogEntry{}, false
	}
	return a[len(a)-1], true
}

// Since returns the entries written at or after t.
func (a AuditTrail) Since(t time.Time) AuditTrail {
	out := AuditTrail{}
	for _, e := range a {
		if !e.Timestamp.Before(t) {
			out = append(out, e)
		}
	}
	return out
}

func (a AuditTrail) ForReference(referenceID string) AuditTrail {
	out := AuditTrail{}
	for _, e := range a {
		if e.ReferenceID == referenceID {
			out = append(out, e)
		}
	}
	return out
}

func (a AuditTrail) ForLocation(locationID string) AuditTrail {
	out := AuditTrail{}
	for _, e := range a {
		if e.LocationID == locationID {
			out = append(out, e)
		}
	}
	return out
}

// Filter keeps the entries that match every field set on f.
func (a AuditTrail) Filter(f AuditFilter) AuditTrail {
	out := a
	if !f.Since.IsZero() {
		out = out.Since(f.Since)
	}
	if f.LocationID != "" {
		out = out.ForLocation(f.LocationID)
	}
	if f.ReferenceID != "" {
		out = out.ForReference(f.ReferenceID)
	}
	return out
}

// Page returns a window of the trail, newest entries last, the way it is stored.
func (a AuditTrail) Page(limit, offset int) AuditTrail {
	if offset >= len(a) || limit <= 0 {
		return AuditTrail{}
	}
	end := offset + limit
	if end > len(a) {
		end = len(a)
	}
	out := make(AuditTrail, end-offset)
	copy(out, a[offset:end])
	return out
}

func (a *AuditTrail) append(e AuditLogEntry) {
	*a = append(*a, e)
}
