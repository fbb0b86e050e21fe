package platform

import (
	"fmt"

	"github.com/dmitrijs2005/bililive/internal/client/client"
	"github.com/dmitrijs2005/bililive/internal/common"
)

// CodeNotLoggedIn is the envelope code for a missing or revoked session.
const CodeNotLoggedIn = -101

// APIError is a non-zero envelope code.
type APIError struct {
	Endpoint string
	Code     int
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: platform code %d: %s", e.Endpoint, e.Code, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case client.ErrUnauthorized:
		return e.Code == CodeNotLoggedIn
	case common.ErrProtocol:
		return e.Code != CodeNotLoggedIn
	}
	return false
}

// ProtocolError is a payload that decoded but violates the endpoint contract.
type ProtocolError struct {
	Endpoint string
	Reason   string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Reason)
}

func (e *ProtocolError) Is(target error) bool { return target == common.ErrProtocol }
