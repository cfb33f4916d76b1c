package eventlog

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// WriteSSE frames one entry as a server-sent event. The entry sequence is the
// SSE id, which lets clients resume with Last-Event-ID after a reconnect.
func WriteSSE(w http.ResponseWriter, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if e.Seq > 0 {
		if _, err := fmt.Fprintf(w, "id: %s\n", strconv.FormatInt(e.Seq, 10)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", e.Type); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
