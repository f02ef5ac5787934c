// Package api contains types for the API requests and responses.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/resphone/resphone/internal/models"
)

// ErrMalformed is returned for bodies that are not valid JSON or miss required fields.
var ErrMalformed = errors.New("invalid request format")

// UTC is seconds since the epoch. It accepts a JSON number or a numeric string.
type UTC int64

// UnmarshalJSON parses a number or a quoted integer.
func (u *UTC) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	if s == "" || s == "null" {
		return errors.New("utc: empty")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("utc: %w", err)
		}
		n = int64(f)
	}
	*u = UTC(n)
	return nil
}

// AuthRequest is the credential proof carried by every authenticated route.
type AuthRequest struct {
	Hash string `json:"hash"`
	UTC  *UTC   `json:"utc"`
}

// Timestamp returns the proof timestamp; call only after Validate.
func (r AuthRequest) Timestamp() int64 { return int64(*r.UTC) }

func (r AuthRequest) validate() error {
	if r.Hash == "" || r.UTC == nil {
		return fmt.Errorf("%w: hash and utc are required", ErrMalformed)
	}
	return nil
}

// UpdateRequest is the body of POST /update.
type UpdateRequest struct {
	AuthRequest
	Contacts *[]models.Contact `json:"contacts"`
	Selected *string           `json:"selected"`
}

func (r UpdateRequest) validate() error {
	if err := r.AuthRequest.validate(); err != nil {
		return err
	}
	if r.Contacts == nil || r.Selected == nil {
		return fmt.Errorf("%w: contacts and selected are required", ErrMalformed)
	}
	return nil
}

// DecodeAuth parses an AuthRequest body.
func DecodeAuth(body []byte) (AuthRequest, error) {
	var req AuthRequest
	if err := decode(body, &req); err != nil {
		return req, err
	}
	return req, req.validate()
}

// DecodeUpdate parses an UpdateRequest body.
func DecodeUpdate(body []byte) (UpdateRequest, error) {
	var req UpdateRequest
	if err := decode(body, &req); err != nil {
		return req, err
	}
	return req, req.validate()
}

func decode(body []byte, v any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%w: empty body", ErrMalformed)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
