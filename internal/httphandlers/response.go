package httphandlers

import (
	"encoding/json"
	"github.com/prhdev222/med-file-case/internal/backup"
	"github.com/prhdev222/med-file-case/internal/misc"
	"github.com/prhdev222/med-file-case/internal/types"
	"net/http"
)

type (
	response struct {
		Error   bool        `json:"error"`
		Code    string      `json:"code,omitempty"`
		Message string      `json:"message"`
		Detail  string      `json:"detail,omitempty"`
		Data    interface{} `json:"data"`
	}
)

func badRequest(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, err)
}

func ok(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, response{
		Error:   false,
		Message: message,
		Data:    data,
	})
}

func writeError(w http.ResponseWriter, errorCode int, err error) {
	errmsg := ""
	if err != nil {
		errmsg = err.Error()
	}

	writeJSON(w, errorCode, response{
		Error:   true,
		Code:    string(backup.KindInvalidArgument),
		Message: errmsg,
	})
}

// writeOutcome writes a service outcome, choosing the status from its code.
func writeOutcome(w http.ResponseWriter, outcome types.Outcome) {
	if outcome.Success {
		ok(w, outcome.Message, outcome.Data)
		return
	}

	writeJSON(w, statusFor(outcome.Code), response{
		Error:   true,
		Code:    outcome.Code,
		Message: outcome.Message,
		Detail:  outcome.Detail,
		Data:    outcome.Data,
	})
}

func statusFor(code string) int {
	switch backup.ErrorKind(code) {
	case backup.KindInvalidArgument:
		return http.StatusBadRequest
	case backup.KindNotFound:
		return http.StatusNotFound
	case backup.KindRestorePrecondition:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, r response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	b, _ := json.Marshal(r)
	_, _ = w.Write(b)
}

func writeSSELine(w http.ResponseWriter, data interface{}) error {
	bytes, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, _ = w.Write(bytes)
	_, _ = w.Write(misc.Seperator)
	flusher, ok := w.(http.Flusher)
	if ok {
		flusher.Flush()
	}
	return nil
}
