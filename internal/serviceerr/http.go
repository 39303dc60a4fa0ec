package serviceerr

import (
	"encoding/json"
	"net/http"
)

// Response is the JSON body of every API answer.
type Response struct {
	OK     bool `json:"ok"`
	Reason Code `json:"reason,omitempty"`
}

// WriteJSON writes body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError writes the outward form of err: its status and coarse code only.
func WriteError(w http.ResponseWriter, err error) {
	svcErr := From(err)
	WriteJSON(w, svcErr.HTTPStatus(), Response{Reason: svcErr.Err})
}
