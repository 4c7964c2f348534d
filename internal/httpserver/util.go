package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const maxRequestBodyBytes = 64 << 10

// decodeJSON decodes a JSON request body into dest. An empty body leaves dest
// untouched; unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer body.Close()

	err := json.NewDecoder(body).Decode(dest)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
