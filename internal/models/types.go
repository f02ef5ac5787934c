// Package models defines the data models used in the application.
package models

import "encoding/json"

// Contact is one selectable forwarding target.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"` // bare 10-digit national number, not enforced here
}

// Update is one entry of the append-only audit trail.
type Update struct {
	TS     string `json:"ts"`     // human-readable, rendered in the audit time zone
	Update string `json:"update"` // free-text description
}

// Configuration is the single persisted document.
type Configuration struct {
	Contacts []Contact `json:"contacts"`
	Selected string    `json:"selected"`
	Updates  []Update  `json:"updates"`

	// Extra holds top-level fields this service does not own. They are
	// written back untouched on every save.
	Extra map[string]json.RawMessage `json:"-"`
}

var ownedFields = []string{"contacts", "selected", "updates"}

// UnmarshalJSON decodes the owned fields and keeps everything else in Extra.
func (c *Configuration) UnmarshalJSON(b []byte) error {
	type plain Configuration
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, k := range ownedFields {
		delete(all, k)
	}
	*c = Configuration(p)
	if len(all) > 0 {
		c.Extra = all
	}
	return nil
}

// MarshalJSON encodes Extra alongside the owned fields. Owned fields win on collision.
func (c Configuration) MarshalJSON() ([]byte, error) {
	contacts := c.Contacts
	if contacts == nil {
		contacts = []Contact{}
	}
	updates := c.Updates
	if updates == nil {
		updates = []Update{}
	}
	out := make(map[string]any, len(c.Extra)+3)
	for k, v := range c.Extra {
		out[k] = v
	}
	out["contacts"] = contacts
	out["selected"] = c.Selected
	out["updates"] = updates
	return json.Marshal(out)
}
