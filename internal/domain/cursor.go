package domain

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Cursor marks the last record of the most recently fetched page.
// A nil *Cursor means "from the start".
//
// Records are ordered by Timestamp descending, then ID ascending, so two
// records sharing a timestamp still have a stable position.
type Cursor struct {
	Timestamp time.Time
	ID        string
}

// CursorAfter returns the cursor positioned on l
func CursorAfter(l *Listing) *Cursor {
	return &Cursor{Timestamp: l.Timestamp, ID: l.ID}
}

// Precedes reports whether l sorts strictly after the cursor position.
// A nil cursor precedes every record.
func (c *Cursor) Precedes(l *Listing) bool {
	if c == nil {
		return true
	}
	if l.Timestamp.Equal(c.Timestamp) {
		return l.ID > c.ID
	}
	return l.Timestamp.Before(c.Timestamp)
}

// cursorWire is the CBOR shape of a cursor token
type cursorWire struct {
	UnixNano int64  `cbor:"1,keyasint"`
	ID       string `cbor:"2,keyasint"`
}

// Token encodes the cursor as an opaque URL-safe string
func (c *Cursor) Token() string {
	if c == nil {
		return ""
	}
	data, err := cbor.Marshal(cursorWire{UnixNano: c.Timestamp.UnixNano(), ID: c.ID})
	if err != nil {
		// cursorWire has no types cbor can refuse
		panic(fmt.Sprintf("encode cursor: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// ParseCursor decodes a token produced by Token. The empty token is a nil cursor.
func ParseCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var w cursorWire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if w.ID == "" {
		return nil, fmt.Errorf("%w: missing record id", ErrInvalidCursor)
	}
	return &Cursor{Timestamp: time.Unix(0, w.UnixNano).UTC(), ID: w.ID}, nil
}
