package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidUser = errors.New("invalid user record")

// UserRecord is the user object returned by the backend at login. It is
// passed through untouched; only a few fields are read for display and for
// the order payload.
type UserRecord json.RawMessage

// ParseUserRecord accepts any JSON object.
func ParseUserRecord(data []byte) (UserRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: not a JSON object", ErrInvalidUser)
	}
	out := make([]byte, len(trimmed))
	copy(out, trimmed)
	return UserRecord(out), nil
}

func (u UserRecord) MarshalJSON() ([]byte, error) {
	if len(u) == 0 {
		return []byte("null"), nil
	}
	return json.RawMessage(u).MarshalJSON()
}

func (u *UserRecord) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*u = nil
		return nil
	}
	parsed, err := ParseUserRecord(data)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

type userFields struct {
	ID    json.RawMessage `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
}

func (u UserRecord) fields() userFields {
	var f userFields
	_ = json.Unmarshal(u, &f)
	return f
}

// ID is the raw JSON value of the record's id field, number or string as
// the backend sent it. Nil when absent.
func (u UserRecord) ID() json.RawMessage {
	id := u.fields().ID
	if len(id) == 0 || bytes.Equal(id, []byte("null")) {
		return nil
	}
	return id
}

func (u UserRecord) Name() string  { return u.fields().Name }
func (u UserRecord) Email() string { return u.fields().Email }

// DisplayName is the name, falling back to the email.
func (u UserRecord) DisplayName() string {
	f := u.fields()
	if f.Name != "" {
		return f.Name
	}
	return f.Email
}

// Session is the authenticated user and bearer credential. Both are set or
// neither is.
type Session struct {
	User       UserRecord
	Credential string
}

func (s Session) IsAuthenticated() bool {
	return len(s.User) > 0 && s.Credential != ""
}
