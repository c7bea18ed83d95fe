package vpbx

import (
	"encoding/json"
	"net/http"
)

// StatusMethodFailure is the provider's "420 Method Failure" reply.
// net/http cannot emit a custom reason phrase, so the status line reads
// "420 status code 420"; the provider only looks at the code.
const StatusMethodFailure = 420

// WriteResponse replies to a webhook. Strings and byte slices are written
// raw, anything else as JSON. Any status other than 420 is sent as 200.
func WriteResponse(w http.ResponseWriter, data any, status int) error {
	if status != StatusMethodFailure {
		status = http.StatusOK
	}

	var body []byte
	switch v := data.(type) {
	case nil:
	case string:
		body = []byte(v)
	case []byte:
		body = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		body = b
		w.Header().Set("Content-Type", "application/json")
	}

	w.WriteHeader(status)
	_, err := w.Write(body)
	return err
}
