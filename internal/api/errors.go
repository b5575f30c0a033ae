package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"aidoc/middleware"
)

// Kind classifies a failed request.
type Kind int

const (
	KindNetwork    Kind = iota + 1 // request could not be sent or the response not read
	KindAuth                       // 401, or no token for an authenticated call
	KindValidation                 // other 4xx, or rejected client-side input
	KindServer                     // 5xx or an unreadable success body
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "NetworkFailure"
	case KindAuth:
		return "AuthFailure"
	case KindValidation:
		return "ValidationFailure"
	case KindServer:
		return "ServerFailure"
	}
	return "UnknownFailure"
}

const fallbackMessage = "Something went wrong"

// ErrNoToken means the call was refused locally because nobody is logged in.
var ErrNoToken = middleware.ErrNoToken

// RequestError is the single error shape surfaced by the client.
type RequestError struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first RequestError in err's chain, or 0.
func KindOf(err error) Kind {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}

// IsAuthFailure reports whether err should send the user back to login.
func IsAuthFailure(err error) bool {
	return KindOf(err) == KindAuth
}

// Validation builds a client-side ValidationFailure.
func Validation(msg string, err error) *RequestError {
	return &RequestError{Kind: KindValidation, Message: msg, Err: err}
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status >= 500:
		return KindServer
	default:
		return KindValidation
	}
}

// errorBody covers FastAPI's two detail shapes: a plain string, and a list
// of validation errors with a msg each.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationDetail struct {
	Msg string `json:"msg"`
	Loc []any  `json:"loc"`
}

func parseErrorMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return fallbackMessage
	}

	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		if s == "" {
			return fallbackMessage
		}
		return s
	}

	var list []validationDetail
	if err := json.Unmarshal(eb.Detail, &list); err == nil && len(list) > 0 {
		msgs := make([]string, 0, len(list))
		for _, d := range list {
			if d.Msg == "" {
				continue
			}
			if field := lastLoc(d.Loc); field != "" {
				msgs = append(msgs, fmt.Sprintf("%s: %s", field, d.Msg))
			} else {
				msgs = append(msgs, d.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return fallbackMessage
}

func lastLoc(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok {
		return s
	}
	return ""
}
