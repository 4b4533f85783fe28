package ui

import "sync"

// UIDocument is a document loaded through the UI.
type UIDocument struct {
	mu     *sync.Mutex
	doc    Document
	source string
	closed bool
}

func newUIDocument(doc Document, source string) *UIDocument {
	return &UIDocument{mu: &sync.Mutex{}, doc: doc, source: source}
}

// Source returns the path or URL the document was loaded from.
func (d *UIDocument) Source() string { return d.source }

// Title returns the document title, "" once closed.
func (d *UIDocument) Title() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ""
	}
	return d.doc.Title()
}

// Show makes the document visible. Closed documents are ignored.
func (d *UIDocument) Show() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.doc.Show()
	}
}

// Hide hides the document without unloading it.
func (d *UIDocument) Hide() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.doc.Hide()
	}
}

// IsVisible reports whether the document is shown.
func (d *UIDocument) IsVisible() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.closed && d.doc.IsVisible()
}

// Close unloads the document. Further calls are no-ops.
func (d *UIDocument) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.doc.Close()
}

// IsClosed reports whether Close was called.
func (d *UIDocument) IsClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
