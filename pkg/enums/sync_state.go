package enums

import "fmt"

// SyncState tracks where a session is in the guest-to-account cart merge.
type SyncState string

const (
	SyncStateAnonymous SyncState = "anonymous"
	SyncStateSyncing   SyncState = "syncing"
	SyncStateSynced    SyncState = "synced"
)

var validSyncStates = []SyncState{
	SyncStateAnonymous,
	SyncStateSyncing,
	SyncStateSynced,
}

// String implements fmt.Stringer.
func (s SyncState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SyncState.
func (s SyncState) IsValid() bool {
	for _, candidate := range validSyncStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSyncState converts raw input into a SyncState.
func ParseSyncState(value string) (SyncState, error) {
	for _, candidate := range validSyncStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync state %q", value)
}
