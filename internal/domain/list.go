package domain

// ListStateActive is the state new lists are created in.
const ListStateActive = "active"

// List is the metadata of a household list owned by the remote list service.
type List struct {
	ID      string `json:"listId,omitempty"`
	Name    string `json:"name"`
	State   string `json:"state"`
	Version int    `json:"version,omitempty"`
}
