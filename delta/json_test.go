package delta

import (
	"encoding/json"
	"testing"
)

func TestDeltaJSONRoundTrip(t *testing.T) {
	d := New().
		InsertText("hello", Attrs{"bold": true}).
		InsertEmbed(map[string]any{"image": "a.png"}, nil).
		Retain(3, Attrs{"italic": nil}).
		DeleteN(2)

	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Delta
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !Equal(&got, d) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got.Ops, d.Ops)
	}
}

func TestDeltaJSONWireShape(t *testing.T) {
	d := New().InsertText("hi", Attrs{"bold": true}).Retain(2, nil).DeleteN(1)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw []map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal to raw: %v", err)
	}
	if len(raw) != 3 {
		t.Fatalf("expected 3 ops, got %d", len(raw))
	}
	if raw[0]["insert"] != "hi" {
		t.Errorf("op0 insert = %v, want %q", raw[0]["insert"], "hi")
	}
	if _, ok := raw[1]["retain"]; !ok {
		t.Errorf("op1 missing retain field: %+v", raw[1])
	}
	if _, ok := raw[2]["delete"]; !ok {
		t.Errorf("op2 missing delete field: %+v", raw[2])
	}
}

func TestDeltaJSONRejectsInvalidRetainCount(t *testing.T) {
	var got Delta
	err := json.Unmarshal([]byte(`[{"retain": 0}]`), &got)
	if err == nil {
		t.Fatal("expected error unmarshaling a non-positive retain count")
	}
}

func TestDeltaJSONNullIsEmpty(t *testing.T) {
	var got Delta
	if err := json.Unmarshal([]byte(`null`), &got); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !got.IsEmpty() {
		t.Errorf("expected empty delta, got %+v", got.Ops)
	}
}
