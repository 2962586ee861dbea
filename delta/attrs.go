package delta

// composeAttrs merges b onto a: b's keys win. When keepNull is false
// (composing b onto an insert — the result is a finished document
// fragment), keys with a nil value in b are dropped from the result
// rather than carried forward as removal markers, since there is nothing
// left to remove. When keepNull is true (composing two retains), nil
// values are preserved so a later composition or Apply can still remove
// the key.
func composeAttrs(a, b Attrs, keepNull bool) Attrs {
	out := make(Attrs, len(a)+len(b))
	for k, v := range b {
		if v == nil && !keepNull {
			continue
		}
		out[k] = v
	}
	for k, v := range a {
		if _, inB := b[k]; !inB {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// transformAttrs computes b's attributes as seen after a has already
// applied. When priority is true, a is considered to have won any
// conflicting key and that key is dropped from the result; when false,
// b's attributes pass through unchanged.
func transformAttrs(a, b Attrs, priority bool) Attrs {
	if len(b) == 0 {
		return nil
	}
	if !priority || len(a) == 0 {
		return b.Clone()
	}
	out := make(Attrs, len(b))
	for k, v := range b {
		if _, inA := a[k]; !inA {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// invertAttrs returns the retain attributes that undo change (applied
// against a document that had base attributes): keys change altered get
// their base value restored; keys change added (not present in base) are
// marked for removal (nil).
func invertAttrs(change, base Attrs) Attrs {
	out := make(Attrs, len(change)+len(base))
	for k, baseVal := range base {
		changeVal, inChange := change[k]
		if inChange && changeVal != baseVal {
			out[k] = baseVal
		}
	}
	for k, changeVal := range change {
		if _, inBase := base[k]; !inBase && changeVal != nil {
			out[k] = nil
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// diffAttrs returns the attribute delta that turns a's attributes into
// b's: keys whose values differ get b's value (or nil if b dropped the
// key).
func diffAttrs(a, b Attrs) Attrs {
	out := make(Attrs, len(a)+len(b))
	for k, av := range a {
		if bv, ok := b[k]; !ok || bv != av {
			if !ok {
				out[k] = nil
			} else {
				out[k] = bv
			}
		}
	}
	for k, bv := range b {
		if _, ok := a[k]; !ok {
			out[k] = bv
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
