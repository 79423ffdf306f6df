package services

import (
	"sync"

	"nftconnect/internal/models"
)

// DisplayStore holds what the panel currently shows. Version increases on
// every change so the page can poll cheaply.
type DisplayStore struct {
	mu      sync.RWMutex
	display models.Display
	version uint64
}

func NewDisplayStore() *DisplayStore {
	return &DisplayStore{}
}

func (d *DisplayStore) Set(display models.Display) {
	d.mu.Lock()
	defer d.mu.Unlock()
	display.Visible = d.display.Visible
	d.display = display
	d.version++
}

func (d *DisplayStore) SetVisible(visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.display.Visible == visible {
		return
	}
	d.display.Visible = visible
	d.version++
}

func (d *DisplayStore) Snapshot() (models.Display, uint64) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	display := d.display
	display.Elements = make([]models.Element, len(d.display.Elements))
	copy(display.Elements, d.display.Elements)
	return display, d.version
}
