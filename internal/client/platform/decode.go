package platform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/bililive/internal/client/client"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Msg
}

func (e envelope) hasData() bool {
	d := bytes.TrimSpace(e.Data)
	return len(d) > 0 && !bytes.Equal(d, []byte("null"))
}

// decodeEnvelope parses the body and returns the envelope when the code is
// zero. name is the endpoint name used in errors.
func decodeEnvelope(name, url string, body []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return env, client.DecodeError(http.MethodGet, url, err)
	}
	if env.Code != 0 {
		return env, &APIError{Endpoint: name, Code: env.Code, Message: env.text()}
	}
	return env, nil
}

// decodeData unmarshals the envelope's data into v; missing data is a
// protocol error.
func decodeData(name, url string, env envelope, v any) error {
	if !env.hasData() {
		return &ProtocolError{Endpoint: name, Reason: "missing data"}
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return client.DecodeError(http.MethodGet, url, err)
	}
	return nil
}

// flexUint accepts a JSON number, a numeric string or null.
type flexUint uint64

func (f *flexUint) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		b = []byte(s)
	}
	v, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("not an unsigned number: %s", b)
	}
	*f = flexUint(v)
	return nil
}
