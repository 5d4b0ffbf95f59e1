// Package buffer keeps the insertion-ordered history of admitted
// measurements. It knows nothing about capacity, storage or transport; the
// ingest coordinator drives it and owns its locking.
package buffer

import (
	"container/list"

	"codeberg.org/mutker/measd/internal/errors"
	"codeberg.org/mutker/measd/internal/measurement"
)

type entry struct {
	record *measurement.Measurement
	seq    uint64
}

// Buffer holds measurements of every kind in admission order.
// A Buffer is not safe for concurrent use.
type Buffer struct {
	byKind [measurement.KindCount]*list.List
	index  map[*measurement.Measurement]*list.Element
	seq    uint64
}

func New() *Buffer {
	b := &Buffer{
		index: make(map[*measurement.Measurement]*list.Element),
	}
	for i := range b.byKind {
		b.byKind[i] = list.New()
	}
	return b
}

// Count returns the number of records held across all kinds.
func (b *Buffer) Count() int {
	return len(b.index)
}

// CountOfKind returns the number of records of one kind.
func (b *Buffer) CountOfKind(kind measurement.Kind) int {
	if !kind.Valid() {
		return 0
	}
	return b.byKind[kind].Len()
}

// OldestOfKind returns the earliest-added record of kind still present.
func (b *Buffer) OldestOfKind(kind measurement.Kind) (*measurement.Measurement, bool) {
	if !kind.Valid() {
		return nil, false
	}
	front := b.byKind[kind].Front()
	if front == nil {
		return nil, false
	}
	return front.Value.(*entry).record, true
}

// Oldest returns the earliest-added record of any kind.
func (b *Buffer) Oldest() (*measurement.Measurement, bool) {
	var oldest *entry
	for _, l := range b.byKind {
		front := l.Front()
		if front == nil {
			continue
		}
		e := front.Value.(*entry)
		if oldest == nil || e.seq < oldest.seq {
			oldest = e
		}
	}
	if oldest == nil {
		return nil, false
	}
	return oldest.record, true
}

// Add appends record. Records sharing an mrid are kept side by side; only
// re-adding the very same instance is refused.
func (b *Buffer) Add(record *measurement.Measurement) error {
	if err := b.CheckAdd(record); err != nil {
		return err
	}

	b.seq++
	b.index[record] = b.byKind[record.Kind()].PushBack(&entry{record: record, seq: b.seq})

	return nil
}

// CheckAdd reports the error Add would return for record without changing
// the buffer.
func (b *Buffer) CheckAdd(record *measurement.Measurement) error {
	errFactory := errors.New()

	if record == nil {
		return errFactory.New(ErrNilRecord)
	}
	if !record.Kind().Valid() {
		return errFactory.WithData(ErrUnknownKind, record.Kind())
	}
	if _, ok := b.index[record]; ok {
		return errFactory.WithData(ErrDuplicateRecord, record)
	}

	return nil
}

// Remove deletes record by identity. It reports false, leaving the buffer
// untouched, when record is not present.
func (b *Buffer) Remove(record *measurement.Measurement) bool {
	elem, ok := b.index[record]
	if !ok {
		return false
	}

	b.byKind[record.Kind()].Remove(elem)
	delete(b.index, record)

	return true
}

// Contains reports whether this exact record instance is buffered.
func (b *Buffer) Contains(record *measurement.Measurement) bool {
	_, ok := b.index[record]
	return ok
}
