package delta

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// opJSON mirrors the wire shape of a single op from spec §6.2:
//
//	{"insert": "<string>" | <embed-object>, "attributes": {...}?}
//	{"retain": <positive int>, "attributes": {...}?}
//	{"delete": <positive int>}
type opJSON struct {
	Insert     json.RawMessage `json:"insert,omitempty"`
	Retain     *int            `json:"retain,omitempty"`
	Delete     *int            `json:"delete,omitempty"`
	Attributes Attrs           `json:"attributes,omitempty"`
}

// MarshalJSON encodes a Delta as the JSON array described in spec §6.2.
func (d *Delta) MarshalJSON() ([]byte, error) {
	raw := make([]opJSON, len(d.Ops))
	for i, op := range d.Ops {
		var j opJSON
		switch op.Kind {
		case Insert:
			var b []byte
			var err error
			if op.IsEmbed {
				b, err = json.Marshal(op.Embed)
			} else {
				b, err = json.Marshal(op.Text)
			}
			if err != nil {
				return nil, fmt.Errorf("delta: marshal insert %d: %w", i, err)
			}
			j.Insert = b
			j.Attributes = op.Attrs
		case Retain:
			n := op.Count
			j.Retain = &n
			j.Attributes = op.Attrs
		case Delete:
			n := op.Count
			j.Delete = &n
		}
		raw[i] = j
	}
	return json.Marshal(raw)
}

// UnmarshalJSON decodes a Delta from the JSON array described in spec
// §6.2. Ops are appended via Push so the result is canonical.
func (d *Delta) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		d.Ops = nil
		return nil
	}
	var raw []opJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("delta: unmarshal: %w", err)
	}
	d.Ops = nil
	for i, j := range raw {
		op, err := opFromJSON(j)
		if err != nil {
			return fmt.Errorf("delta: op %d: %w", i, err)
		}
		d.push(op)
	}
	return nil
}

func opFromJSON(j opJSON) (Op, error) {
	switch {
	case j.Insert != nil:
		var text string
		if err := json.Unmarshal(j.Insert, &text); err == nil {
			return Op{Kind: Insert, Text: text, Attrs: j.Attributes}, nil
		}
		var embed map[string]any
		if err := json.Unmarshal(j.Insert, &embed); err != nil {
			return Op{}, fmt.Errorf("insert payload is neither string nor object: %w", err)
		}
		return Op{Kind: Insert, Embed: embed, IsEmbed: true, Attrs: j.Attributes}, nil
	case j.Retain != nil:
		if *j.Retain <= 0 {
			return Op{}, fmt.Errorf("retain count must be positive, got %d", *j.Retain)
		}
		return Op{Kind: Retain, Count: *j.Retain, Attrs: j.Attributes}, nil
	case j.Delete != nil:
		if *j.Delete <= 0 {
			return Op{}, fmt.Errorf("delete count must be positive, got %d", *j.Delete)
		}
		return Op{Kind: Delete, Count: *j.Delete}, nil
	default:
		return Op{}, fmt.Errorf("op has neither insert, retain, nor delete")
	}
}
