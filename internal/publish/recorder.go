// SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"context"
	"sync"
)

// Record is one property write seen by a Recorder.
type Record struct {
	Socket    int       `json:"socket"`
	Name      Property  `json:"name"`
	Value     any       `json:"value"`
	Interface Interface `json:"interface"`
}

// Recorder is a Publisher keeping an ordered log of writes.
type Recorder struct {
	mu      sync.Mutex
	records []Record

	// Fail, when set, is consulted for every write; a non-nil result is
	// returned and the write is not recorded.
	Fail func(r Record) error
}

var _ Publisher = &Recorder{}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, socket int, name Property, value any, iface Interface) error {
	if err := ValidateValue(value); err != nil {
		return err
	}
	rec := Record{Socket: socket, Name: name, Value: value, Interface: iface}
	if r.Fail != nil {
		if err := r.Fail(rec); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

// Records returns all writes in order.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.records...)
}

// Properties returns the last written value of every property of socket.
func (r *Recorder) Properties(socket int) map[Property]any {
	props := map[Property]any{}
	for _, rec := range r.Records() {
		if rec.Socket == socket {
			props[rec.Name] = rec.Value
		}
	}
	return props
}

// Reset drops all recorded writes.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
}
