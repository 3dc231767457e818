package channel

import "strings"

// Canonical maps a stored channel type onto the kind used for rendering.
// "email" is stored by the settings UI but rendered as mail; every other type
// is its own kind.
func Canonical(typ string) Kind {
	t := strings.ToLower(strings.TrimSpace(typ))
	switch t {
	case "email", "e-mail":
		return KindMail
	default:
		return Kind(t)
	}
}

// Resolve returns the kinds a user should be notified through, in the order
// the records were persisted. Disabled records are skipped and each kind
// appears once.
func Resolve(records []Record) []Kind {
	out := make([]Kind, 0, len(records))
	seen := make(map[Kind]struct{}, len(records))
	for _, r := range records {
		if !r.Enabled {
			continue
		}
		k := r.Kind()
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// FirstEnabled returns the first enabled record of the given kind.
func FirstEnabled(records []Record, kind Kind) (Record, bool) {
	for _, r := range records {
		if r.Enabled && r.Kind() == kind {
			return r, true
		}
	}
	return Record{}, false
}
