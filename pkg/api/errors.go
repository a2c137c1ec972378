package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/taskwell/core/errors"
)

// The server reports failures as {"detail": ...} where detail is either a
// plain string or, for 422 validation failures, a list of
// {loc: [...], msg: "..."} entries. Each loc's last element names the
// offending field.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationEntry struct {
	Loc []interface{} `json:"loc"`
	Msg string        `json:"msg"`
}

// decodeError turns a non-2xx response into an APIError, extracting the
// server's human-readable detail and any field-level validation entries.
func decodeError(resp *http.Response) *errors.APIError {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.FromStatus(resp.StatusCode, "")
	}

	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return errors.FromStatus(resp.StatusCode, "")
	}

	// Plain string detail.
	var message string
	if err := json.Unmarshal(body.Detail, &message); err == nil {
		return errors.FromStatus(resp.StatusCode, message)
	}

	// Structured validation detail.
	var entries []validationEntry
	if err := json.Unmarshal(body.Detail, &entries); err == nil && len(entries) > 0 {
		fields := make([]errors.FieldError, 0, len(entries))
		parts := make([]string, 0, len(entries))
		for _, e := range entries {
			field := lastLoc(e.Loc)
			if field != "" {
				fields = append(fields, errors.FieldError{Field: field, Message: e.Msg})
				parts = append(parts, field+": "+e.Msg)
			} else {
				parts = append(parts, e.Msg)
			}
		}
		apiErr := errors.FromStatus(resp.StatusCode, strings.Join(parts, ", "))
		apiErr.Fields = fields
		return apiErr
	}

	return errors.FromStatus(resp.StatusCode, "")
}

// lastLoc returns the final loc element as the field name. Elements may be
// strings ("body", "title") or numbers (array indices); numbers are
// formatted but only the last element matters.
func lastLoc(loc []interface{}) string {
	if len(loc) == 0 {
		return ""
	}
	switch v := loc[len(loc)-1].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%d", int(v))
	default:
		return ""
	}
}
