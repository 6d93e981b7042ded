package api

import (
	"encoding/json"

	"github.com/gogadget/sesskit/session"
)

// Envelope is the standard response wrapper every endpoint returns:
// {data, meta, error, ok}.
type Envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  map[string]any  `json:"meta"`
	Error map[string]any  `json:"error"`
	OK    bool            `json:"ok"`

	// HTTPStatus is the transport status the envelope arrived with. Set by
	// the client, never decoded from the body.
	HTTPStatus int `json:"-"`
}

// errorMessage extracts the server's human-readable message, if any.
func (e Envelope) errorMessage() string {
	if e.Error == nil {
		return ""
	}
	msg, _ := e.Error["message"].(string)
	return msg
}

// Unwrap returns the decoded payload of a successful envelope, or a
// classified [*Error] carrying fallback as the message when the server did
// not supply one.
func Unwrap[T any](env Envelope, fallback string) (T, error) {
	var out T

	if !env.OK {
		msg := env.errorMessage()
		if msg == "" {
			msg = fallback
		}
		return out, &Error{
			Status:  env.HTTPStatus,
			Body:    env.Error,
			Message: msg,
			Err:     ErrEnvelope,
		}
	}

	if len(env.Data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, &Error{
			Status:  env.HTTPStatus,
			Message: fallback,
			Err:     err,
		}
	}
	return out, nil
}

// MeData is the identity payload of GET /auth/me.
type MeData struct {
	UserID string       `json:"userId"`
	Name   string       `json:"name"`
	Email  string       `json:"email"`
	Role   session.Role `json:"role"`
}

// LoginRequest is the credential payload of POST /auth/login. The response
// sets the session cookie; it does not carry identity — callers follow up
// with [Client.Me].
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
