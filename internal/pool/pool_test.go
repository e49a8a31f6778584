// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package pool

import (
	"testing"
)

func TestBytesReset(t *testing.T) {
	buf := Bytes.Get()
	buf.WriteString("stale")
	Bytes.Put(buf)

	if buf.Len() != 0 {
		t.Errorf("Put() left %d bytes in the buffer", buf.Len())
	}
	if got := Bytes.Get(); got.Len() != 0 {
		t.Errorf("Get() returned a buffer holding %q", got.String())
	}
}

func TestStringReset(t *testing.T) {
	sb := String.Get()
	sb.WriteString("confirmation")
	s := sb.String()
	String.Put(sb)

	if s != "confirmation" {
		t.Errorf("string read before Put() = %q, want %q", s, "confirmation")
	}
	if sb.Len() != 0 {
		t.Errorf("Put() left %d bytes in the builder", sb.Len())
	}
}

type counter struct{ resets int }

func (c *counter) Reset() { c.resets++ }

func TestPoolResetter(t *testing.T) {
	p := New(func() *counter { return &counter{} })
	c := p.Get()
	p.Put(c)
	if c.resets != 1 {
		t.Errorf("Put() called Reset %d times, want 1", c.resets)
	}
}
