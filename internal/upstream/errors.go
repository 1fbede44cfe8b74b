package upstream

import "fmt"

// ErrorKind classifies upstream call failures so handlers can decide how to
// surface them without parsing message strings.
type ErrorKind int

const (
	// KindMissingCredentials means no access token was configured.
	KindMissingCredentials ErrorKind = iota
	// KindHTTP is a non-200 response from the API.
	KindHTTP
	// KindTimeout is a request that exceeded the client timeout.
	KindTimeout
	// KindConnection covers transport failures (DNS, refused, reset).
	KindConnection
	// KindDecode is a 200 response whose body was not valid JSON.
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingCredentials:
		return "missing_credentials"
	case KindHTTP:
		return "http"
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is a classified upstream failure. Status is only set for KindHTTP;
// Message is the best-effort human-readable reason extracted from the error
// body when there is one.
type Error struct {
	Kind     ErrorKind
	Endpoint string
	Status   int
	Message  string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind == KindHTTP {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return fmt.Sprintf("%s error calling %s", e.Kind, e.Endpoint)
}
