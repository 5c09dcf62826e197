// Package evidence models the read-only material a game session leaves
// behind: the player roster and the evidence items (letters, photos,
// dossiers, props) the narrative team planted. Each item carries a
// confidentiality layer; the package also enforces the buried-layer policy
// that keeps confidential narrative out of published output.
package evidence

import (
	"slices"
	"strings"
)

// Attachment points at a stored binary for an evidence item, typically a
// photo or a multi-page PDF dossier.
type Attachment struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
}

// Item is one piece of planted evidence.
type Item struct {
	ID         string      `json:"id"`
	Kind       string      `json:"kind"`
	Title      string      `json:"title"`
	Narrative  string      `json:"narrative"`
	Tags       []string    `json:"tags,omitempty"`
	Layer      Layer       `json:"layer"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// Quotable reports whether the item's narrative may appear verbatim in
// output.
func (i Item) Quotable() bool {
	return i.Layer == LayerExposed
}

// HasAttachment reports whether the item carries stored binary content.
func (i Item) HasAttachment() bool {
	return i.Attachment != nil && i.Attachment.Key != ""
}

// IsImage reports whether the item's attachment is directly renderable as
// an image.
func (i Item) IsImage() bool {
	return i.HasAttachment() && strings.HasPrefix(i.Attachment.ContentType, "image/")
}

// IsPDF reports whether the item's attachment is a PDF document.
func (i Item) IsPDF() bool {
	return i.HasAttachment() && i.Attachment.ContentType == "application/pdf"
}

// Player is one participant in the session.
type Player struct {
	Name      string `json:"name"`
	Character string `json:"character"`
	Role      string `json:"role,omitempty"`
}

// Roster is the session's participant list.
type Roster struct {
	Host    string   `json:"host,omitempty"`
	Players []Player `json:"players"`
}

// Names returns the player names in roster order.
func (r Roster) Names() []string {
	names := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		names = append(names, p.Name)
	}
	return names
}

// Bundle is everything the evidence source returns for one session theme.
type Bundle struct {
	Roster Roster `json:"roster"`
	Items  []Item `json:"items"`
}

// Item returns the evidence item with the given id, if present.
func (b *Bundle) Item(id string) (Item, bool) {
	for _, item := range b.Items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// IDs returns the ids of all evidence items in bundle order.
func (b *Bundle) IDs() []string {
	ids := make([]string, 0, len(b.Items))
	for _, item := range b.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// ByLayer returns the items carrying the given layer, in bundle order.
func (b *Bundle) ByLayer(layer Layer) []Item {
	var items []Item
	for _, item := range b.Items {
		if item.Layer == layer {
			items = append(items, item)
		}
	}
	return items
}

// WithAttachments returns the items carrying stored binary content.
func (b *Bundle) WithAttachments() []Item {
	var items []Item
	for _, item := range b.Items {
		if item.HasAttachment() {
			items = append(items, item)
		}
	}
	return items
}

// ResolveRefs reports which of the given evidence ids do not exist in the
// bundle, preserving input order.
func (b *Bundle) ResolveRefs(refs []string) (missing []string) {
	known := make(map[string]struct{}, len(b.Items))
	for _, item := range b.Items {
		known[item.ID] = struct{}{}
	}

	for _, ref := range refs {
		if _, ok := known[ref]; !ok && !slices.Contains(missing, ref) {
			missing = append(missing, ref)
		}
	}
	return missing
}
