package models

import "strings"

// Entry payload variants. A deep-link payload is parsed exactly once at the
// boundary into one of these; anything that does not match a known shape is
// treated as a plain direct entry.
type EntryKind int

const (
	DirectEntry EntryKind = iota
	GuestEntry            // start link carrying a tenant id
	AdminEntry            // "admin:<tenant>" start link
	StaffGroupEntry       // startgroup link carrying a tenant id
)

type Entry struct {
	Kind   EntryKind
	Tenant string
}

// ParseEntryPayload parses a /start deep-link payload. knownTenant reports
// whether an id exists in the directory; unknown ids degrade to DirectEntry
// rather than erroring, per the resolver contract.
func ParseEntryPayload(payload string, group bool, knownTenant func(string) bool) Entry {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Entry{Kind: DirectEntry}
	}

	if rest, ok := strings.CutPrefix(payload, "admin:"); ok {
		id := strings.TrimSpace(rest)
		if id != "" && knownTenant(id) {
			return Entry{Kind: AdminEntry, Tenant: id}
		}
		return Entry{Kind: DirectEntry}
	}

	if !knownTenant(payload) {
		return Entry{Kind: DirectEntry}
	}
	if group {
		return Entry{Kind: StaffGroupEntry, Tenant: payload}
	}
	return Entry{Kind: GuestEntry, Tenant: payload}
}
