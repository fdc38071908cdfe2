package entity

// CustomFields maps a label name to a scalar value. Keys unknown to the
// current label set are kept as-is.
type CustomFields map[string]any

func (f CustomFields) Clone() CustomFields {
	out := make(CustomFields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Merge returns a copy of f with every key of patch applied. A nil value
// removes the key.
func (f CustomFields) Merge(patch CustomFields) CustomFields {
	out := f.Clone()
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// Split separates a patch into the keys it sets and the keys it removes.
func (f CustomFields) Split() (set CustomFields, removed []string) {
	set = CustomFields{}
	removed = []string{}
	for k, v := range f {
		if v == nil {
			removed = append(removed, k)
			continue
		}
		set[k] = v
	}
	return set, removed
}

// RecordPatch is a partial write of status and custom fields. An empty
// Status leaves the stored one; CustomFields is merged into the stored map
// with Merge semantics.
type RecordPatch struct {
	Status       string
	CustomFields CustomFields
}

func (p RecordPatch) Empty() bool {
	return p.Status == "" && len(p.CustomFields) == 0
}

// Rendered keeps only the keys present in labels, in label order.
func (f CustomFields) Rendered(labels []Label) []RenderedField {
	out := make([]RenderedField, 0, len(labels))
	for _, lb := range labels {
		v, ok := f[lb.Name]
		if !ok {
			continue
		}
		out = append(out, RenderedField{Name: lb.Name, DisplayLabel: lb.DisplayLabel, Value: v})
	}
	return out
}

type RenderedField struct {
	Name         string `json:"name"`
	DisplayLabel string `json:"displayLabel"`
	Value        any    `json:"value"`
}
