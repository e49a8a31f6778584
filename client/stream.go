// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"

	"github.com/go-json-experiment/json"

	"github.com/go-a2a/a2a-engine/client/internal/sse"
	"github.com/go-a2a/a2a-engine/server/event"
)

// Stream reads the events of one invocation from a Server-Sent Events
// response. It is not safe for concurrent use.
type Stream struct {
	body      io.ReadCloser
	dec       *sse.Decoder
	done      bool
	closeOnce sync.Once
}

func newStream(body io.ReadCloser) *Stream {
	return &Stream{
		body: body,
		dec:  sse.NewDecoder(body),
	}
}

// Recv returns the next event. It returns [io.EOF] after the final event of
// the invocation or when the server ends the stream.
func (s *Stream) Recv() (event.Event, error) {
	if s.done {
		return nil, io.EOF
	}

	for {
		raw, err := s.dec.Decode()
		if err != nil {
			s.done = true
			s.Close()
			return nil, err
		}
		if raw.Data == "" {
			continue
		}

		ev, err := decodeEvent([]byte(raw.Data))
		if err != nil {
			s.done = true
			s.Close()
			return nil, err
		}
		if ev.IsFinal() {
			s.done = true
			s.Close()
		}
		return ev, nil
	}
}

// All iterates over the remaining events. Iteration stops after the final
// event, or after yielding the error that ended the stream.
func (s *Stream) All() iter.Seq2[event.Event, error] {
	return func(yield func(event.Event, error) bool) {
		defer s.Close()
		for {
			ev, err := s.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(ev, err) || err != nil {
				return
			}
		}
	}
}

// Close releases the underlying response.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.body.Close()
	})
	return err
}

// decodeEvent unwraps one JSON-RPC response and picks the event type from
// its "kind" member.
func decodeEvent(data []byte) (event.Event, error) {
	var resp rpcResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode stream event: %w", err)
	}

	var head struct {
		Kind string `json:"kind"`
	}
	if err := resp.decode(&head); err != nil {
		return nil, err
	}

	var ev event.Event
	switch head.Kind {
	case event.KindStatusUpdate:
		ev = new(event.TaskStatusUpdateEvent)
	case event.KindArtifactUpdate:
		ev = new(event.TaskArtifactUpdateEvent)
	default:
		return nil, fmt.Errorf("unknown event kind %q", head.Kind)
	}
	if err := resp.decode(ev); err != nil {
		return nil, err
	}
	return ev, nil
}
