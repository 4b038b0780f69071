package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrProtoVersion    = "E_PROTO_VERSION"

	// Arena routing/state.
	ErrArenaFull   = "E_ARENA_FULL"
	ErrArenaClosed = "E_ARENA_CLOSED"

	// Action layer.
	ErrBadAction = "E_BAD_ACTION"
	ErrStale     = "E_STALE"
	ErrInternal  = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrProtoVersion:    {},
	ErrArenaFull:       {},
	ErrArenaClosed:     {},
	ErrBadAction:       {},
	ErrStale:           {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
