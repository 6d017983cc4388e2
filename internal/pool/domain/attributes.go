package domain

// Attribute is one name/value pair on a user. Values are always strings on
// the wire; booleans are "true"/"false".
type Attribute struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

// Attributes is the canonical, ordered attribute list of a user. The list
// form round-trips with the wire protocol; Map derives a lookup view.
type Attributes []Attribute

// Get returns the value for name and whether it is present.
func (a Attributes) Get(name string) (string, bool) {
	for _, at := range a {
		if at.Name == name {
			return at.Value, true
		}
	}
	return "", false
}

// Set returns the list with name set to value, replacing an existing entry
// in place or appending. The receiver is not modified.
func (a Attributes) Set(name, value string) Attributes {
	out := make(Attributes, len(a))
	copy(out, a)
	for i := range out {
		if out[i].Name == name {
			out[i].Value = value
			return out
		}
	}
	return append(out, Attribute{Name: name, Value: value})
}

// Remove returns the list without any entry named name.
func (a Attributes) Remove(name string) Attributes {
	out := make(Attributes, 0, len(a))
	for _, at := range a {
		if at.Name != name {
			out = append(out, at)
		}
	}
	return out
}

// Map returns a derived name→value map for fast access.
func (a Attributes) Map() map[string]string {
	m := make(map[string]string, len(a))
	for _, at := range a {
		m[at.Name] = at.Value
	}
	return m
}
