package view

// Overlay tracks the remote-control overlay's open/closed state and its
// app-source dropdown. Closing the overlay always closes the dropdown; the
// next projection then restores the artwork choice from the latest snapshot,
// which may have changed any number of times while the overlay was open.
type Overlay struct {
	open         bool
	dropdownOpen bool
}

// Open opens the overlay
func (o *Overlay) Open() {
	o.open = true
}

// Close closes the overlay and any open app dropdown
func (o *Overlay) Close() {
	o.open = false
	o.dropdownOpen = false
}

// Toggle flips the overlay state and returns the new open state
func (o *Overlay) Toggle() bool {
	if o.open {
		o.Close()
	} else {
		o.Open()
	}
	return o.open
}

// IsOpen reports whether the overlay is open
func (o *Overlay) IsOpen() bool {
	return o.open
}

// ToggleDropdown flips the app-source dropdown. It only opens while the
// overlay itself is open.
func (o *Overlay) ToggleDropdown() bool {
	if !o.open {
		o.dropdownOpen = false
		return false
	}
	o.dropdownOpen = !o.dropdownOpen
	return o.dropdownOpen
}

// CloseDropdown closes the app-source dropdown
func (o *Overlay) CloseDropdown() {
	o.dropdownOpen = false
}

// DropdownOpen reports whether the app-source dropdown is open
func (o *Overlay) DropdownOpen() bool {
	return o.dropdownOpen
}
