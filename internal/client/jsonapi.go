package client

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Raw is an undecoded JSON:API resource object. It is kept alongside every
// decoded model so callers can reach attributes the models do not map.
type Raw []byte

// UnmarshalJSON keeps a copy of the encoded value
func (r *Raw) UnmarshalJSON(b []byte) error {
	*r = append((*r)[0:0], b...)
	return nil
}

// MarshalJSON returns the encoded value unchanged
func (r Raw) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	return r, nil
}

// Get returns the value at a gjson path, e.g. "attributes.name".
func (r Raw) Get(path string) gjson.Result {
	return gjson.GetBytes(r, path)
}

// RelationshipID returns relationships.<name>.data.id, or "" when the
// relationship is missing, null or to-many.
func (r Raw) RelationshipID(name string) string {
	return r.Get("relationships." + gjson.Escape(name) + ".data.id").String()
}

// Relationship is a JSON:API relationship member.
type Relationship struct {
	Data json.RawMessage `json:"data"`
}

// ID returns the related resource ID for a to-one relationship
func (r Relationship) ID() string {
	return gjson.GetBytes(r.Data, "id").String()
}

// Relationships maps relationship names to their members.
type Relationships map[string]Relationship

// Object holds the members shared by every resource object.
type Object struct {
	ID            string        `json:"id"`
	Type          string        `json:"type"`
	Relationships Relationships `json:"relationships,omitempty"`

	raw Raw
}

func (o *Object) setRaw(r Raw) { o.raw = r }

// Raw returns the object as received from the API.
func (o Object) Raw() Raw { return o.raw }

// RelationshipID returns the ID of a to-one relationship, or "" when absent or null.
func (o Object) RelationshipID(name string) string {
	rel, ok := o.Relationships[name]
	if !ok {
		return ""
	}
	return rel.ID()
}

type rawSetter interface {
	setRaw(Raw)
}

// Document is a single-resource response body.
type Document struct {
	Data     Raw   `json:"data"`
	Included []Raw `json:"included,omitempty"`
}

// FindIncluded returns the included object with the given type and ID.
func (d *Document) FindIncluded(typ, id string) (Raw, bool) {
	for _, inc := range d.Included {
		if inc.Get("type").String() == typ && inc.Get("id").String() == id {
			return inc, true
		}
	}
	return nil, false
}

// Decode decodes a raw resource object into T, keeping the raw form when T embeds Object.
func Decode[T any](data Raw) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to decode resource: %w", err)
	}
	if s, ok := any(&v).(rawSetter); ok {
		s.setRaw(data)
	}
	return &v, nil
}
