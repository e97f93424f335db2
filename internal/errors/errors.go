// Package errors is the structured error the HTTP surface hands back to the host UI.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type (
	// Error is what a handler returns when it knows which status the caller
	// should see. Anything else turns into a bare 500.
	Error struct {
		Status  int
		Err     error
		Details []Detail
	}

	// Detail points at the request field that was rejected.
	Detail struct {
		Field string `json:"field"`
		Error string `json:"error"`
	}

	// Body of an error response.
	wireError struct {
		Message string   `json:"message"`
		Status  int      `json:"status"`
		Details []Detail `json:"details,omitempty"`
	}
)

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%d: %s", e.Status, e.Err)
	}

	return fmt.Sprintf("%d: %s (%d field errors)", e.Status, e.Err, len(e.Details))
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) MarshalJSON() ([]byte, error) {
	w := wireError{
		Message: http.StatusText(e.Status),
		Status:  e.Status,
		Details: e.Details,
	}
	if e.Err != nil {
		w.Message = e.Err.Error()
	}

	return json.Marshal(w)
}

func (e *Error) UnmarshalJSON(byts []byte) error {
	var w wireError
	if err := json.Unmarshal(byts, &w); err != nil {
		return err
	}

	*e = Error{
		Status:  w.Status,
		Err:     errors.New(w.Message),
		Details: w.Details,
	}
	return nil
}

// E assembles an [Error] from whatever it's handed: strings and errors set
// the cause, an int sets the status (500 unless given), details accumulate.
func E(args ...any) *Error {
	e := &Error{Status: http.StatusInternalServerError}

	for _, arg := range args {
		switch v := arg.(type) {
		case int:
			e.Status = v
		case string:
			e.Err = errors.New(v)
		case error:
			e.Err = v
		case Detail:
			e.Details = append(e.Details, v)
		case []Detail:
			e.Details = append(e.Details, v...)
		}
	}

	return e
}
