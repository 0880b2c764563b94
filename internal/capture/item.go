package capture

import (
	"time"
	"unicode/utf8"
)

// Kind classifies the payload carried by an Item.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Item is one unit of captured content on its way through the pipeline.
// Text items carry their payload in Text; image items carry raw bytes in
// Data plus the file path they were read from, when one exists.
type Item struct {
	Kind        Kind
	Text        string
	Data        []byte
	Path        string
	Fingerprint Fingerprint
	CapturedAt  time.Time
}

// NewTextItem builds a fingerprinted text item.
func NewTextItem(text string) *Item {
	it := &Item{Kind: KindText, Text: text, CapturedAt: time.Now()}
	it.Fingerprint = FingerprintOf(it)
	return it
}

// NewImageItem builds a fingerprinted image item. path may be empty for
// images that arrived over the wire rather than from disk.
func NewImageItem(data []byte, path string) *Item {
	it := &Item{Kind: KindImage, Data: data, Path: path, CapturedAt: time.Now()}
	it.Fingerprint = FingerprintOf(it)
	return it
}

// Payload returns the raw bytes the fingerprint is computed over.
func (it *Item) Payload() []byte {
	if it.Kind == KindText {
		return []byte(it.Text)
	}
	return it.Data
}

// Size reports the payload size in bytes.
func (it *Item) Size() int {
	if it.Kind == KindText {
		return len(it.Text)
	}
	return len(it.Data)
}

// TextLength reports the character count of a text payload. Non-text
// items report zero; the minimum-length filter does not apply to them.
func (it *Item) TextLength() int {
	if it.Kind != KindText {
		return 0
	}
	return utf8.RuneCountInString(it.Text)
}
