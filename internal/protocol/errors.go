package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrProtoVersion    = "E_PROTO_VERSION"

	// Match routing/state.
	ErrMatchNotFound   = "E_MATCH_NOT_FOUND"
	ErrMatchNotStarted = "E_MATCH_NOT_STARTED"
	ErrBusy            = "E_BUSY"
	ErrForbidden       = "E_FORBIDDEN"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrProtoVersion:    {},
	ErrMatchNotFound:   {},
	ErrMatchNotStarted: {},
	ErrBusy:            {},
	ErrForbidden:       {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
