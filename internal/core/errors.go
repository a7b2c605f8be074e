package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodeDeviceNotFound = "device_not_found"
	ErrCodePeerNotFound   = "peer_not_found"
	ErrCodeRoomMismatch   = "room_mismatch"
	ErrCodeRateLimited    = "rate_limited"
	ErrCodeDisconnected   = "disconnected"
)

var (
	ErrInvalidLocation = errors.New("invalid location data")
	ErrInvalidJoin     = errors.New("invalid join data")
	ErrInvalidChat     = errors.New("invalid message data")
	ErrInvalidSOS      = errors.New("invalid sos data")
	ErrInvalidSignal   = errors.New("invalid signaling data")
	ErrDeviceNotFound  = errors.New("device not found")
	ErrPeerNotFound    = errors.New("peer not found")
	ErrRoomMismatch    = errors.New("peer is in another room")
	ErrDisconnected    = errors.New("connection is closed")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// toCoreError maps sentinel errors onto wire codes.
func toCoreError(err error) *CoreError {
	var ce *CoreError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ce):
		return ce
	case errors.Is(err, ErrDeviceNotFound):
		return coreError(ErrCodeDeviceNotFound, err.Error())
	case errors.Is(err, ErrPeerNotFound):
		return coreError(ErrCodePeerNotFound, err.Error())
	case errors.Is(err, ErrRoomMismatch):
		return coreError(ErrCodeRoomMismatch, err.Error())
	case errors.Is(err, ErrDisconnected):
		return coreError(ErrCodeDisconnected, err.Error())
	case errors.Is(err, ErrInvalidChat):
		// the message text is what existing clients display
		return coreError(ErrCodeBadRequest, "Invalid message data")
	default:
		return coreError(ErrCodeBadRequest, err.Error())
	}
}
