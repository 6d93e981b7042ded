package session

import "encoding/json"

// persistedState is the serialization allow-list. Anything not listed here
// is transient and resets on load; adding a field is a deliberate decision,
// not a side effect of growing State.
type persistedState struct {
	User             *User `json:"user"`
	IsSessionExpired bool  `json:"isSessionExpired"`
}

func encodePersisted(st State) ([]byte, error) {
	rec := persistedState{IsSessionExpired: st.IsSessionExpired}
	if st.User != nil {
		u := *st.User
		rec.User = &u
	}
	return json.Marshal(rec)
}

func decodePersisted(data []byte) (persistedState, error) {
	var rec persistedState
	if err := json.Unmarshal(data, &rec); err != nil {
		return persistedState{}, err
	}
	// Expired and authenticated are mutually exclusive; a corrupted record
	// resolves in favor of expiry.
	if rec.IsSessionExpired {
		rec.User = nil
	}
	return rec, nil
}
