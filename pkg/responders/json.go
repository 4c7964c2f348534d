package responders

import (
	"encoding/json"
	"net/http"
)

var emptyObject = []byte("{}")

// JSON writes payload as an application/json response. HTML characters are not
// escaped so upstream bodies embedded as json.RawMessage stay byte-identical.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

// Raw relays an already encoded JSON document with the given status.
// An empty body is written as {}.
func Raw(w http.ResponseWriter, status int, body []byte) {
	if len(body) == 0 {
		body = emptyObject
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
