// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"bufio"
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/go-cmp/cmp"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/internal/telemetry"
	"github.com/go-a2a/a2a-engine/internal/travel"
)

type rpcResponse struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      jsontext.Value    `json:"id"`
	Result  jsontext.Value    `json:"result"`
	Error   *a2a.JSONRPCError `json:"error"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	h := newTestHandler(t, travel.New(travel.WithLogger(discardLogger())))
	srv := httptest.NewServer(NewJSONRPCHandler(h,
		WithJSONRPCLogger(discardLogger()),
		WithJSONRPCMetrics(telemetry.Noop()),
	))
	t.Cleanup(srv.Close)
	return srv
}

func postRaw(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func call(t *testing.T, srv *httptest.Server, method string, params any) rpcResponse {
	t.Helper()
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatal(err)
	}
	body, err := json.Marshal(a2a.JSONRPCRequest{
		JSONRPC: a2a.JSONRPCVersion,
		ID:      jsontext.Value(`1`),
		Method:  method,
		Params:  raw,
	})
	if err != nil {
		t.Fatal(err)
	}
	resp := postRaw(t, srv, string(body))

	var out rpcResponse
	if err := json.UnmarshalRead(resp.Body, &out); err != nil {
		t.Fatalf("decode %s response: %v", method, err)
	}
	return out
}

func TestServeAgentCard(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + a2a.AgentCardPath)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var card a2a.AgentCard
	if err := json.UnmarshalRead(resp.Body, &card); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(testCard(), &card); diff != "" {
		t.Errorf("card mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONRPCErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"malformed", `{"jsonrpc":`, a2a.ErrorCodeJSONParse},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"tasks/get"}`, a2a.ErrorCodeInvalidRequest},
		{"no method", `{"jsonrpc":"2.0","id":1}`, a2a.ErrorCodeInvalidRequest},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"tasks/frobnicate"}`, a2a.ErrorCodeMethodNotFound},
		{"missing params", `{"jsonrpc":"2.0","id":1,"method":"tasks/get"}`, a2a.ErrorCodeInvalidParams},
		{"bad params", `{"jsonrpc":"2.0","id":1,"method":"tasks/get","params":{"id":7}}`, a2a.ErrorCodeInvalidParams},
		{"unknown task", `{"jsonrpc":"2.0","id":1,"method":"tasks/get","params":{"id":"nope"}}`, a2a.ErrorCodeTaskNotFound},
		{"agent message", `{"jsonrpc":"2.0","id":1,"method":"message/send","params":{"message":{"kind":"message","messageId":"m","role":"agent","parts":[{"kind":"text","text":"hi"}]}}}`, a2a.ErrorCodeInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postRaw(t, srv, tt.body)
			var out rpcResponse
			if err := json.UnmarshalRead(resp.Body, &out); err != nil {
				t.Fatal(err)
			}
			if out.Error == nil {
				t.Fatalf("no error in response, result = %s", out.Result)
			}
			if out.Error.Code != tt.wantCode {
				t.Errorf("code = %d, want %d (%s)", out.Error.Code, tt.wantCode, out.Error.Message)
			}
		})
	}
}

func TestJSONRPCConversation(t *testing.T) {
	srv := newTestServer(t)

	first := call(t, srv, a2a.MethodMessageSend, a2a.MessageSendParams{
		Message: a2a.NewUserTextMessage("Book a flight to Paris", "trip", ""),
	})
	if first.Error != nil {
		t.Fatal(first.Error)
	}
	if string(first.ID) != "1" {
		t.Errorf("id = %s, want 1", first.ID)
	}
	var task a2a.Task
	if err := json.Unmarshal(first.Result, &task); err != nil {
		t.Fatal(err)
	}
	if task.Status.State != a2a.TaskStateInputRequired {
		t.Fatalf("state = %s, want input-required", task.Status.State)
	}

	got := call(t, srv, a2a.MethodTasksGet, a2a.TaskIDParams{ID: task.ID})
	var fetched a2a.Task
	if err := json.Unmarshal(got.Result, &fetched); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&task, &fetched); diff != "" {
		t.Errorf("tasks/get mismatch (-want +got):\n%s", diff)
	}

	canceled := call(t, srv, a2a.MethodTasksCancel, a2a.TaskIDParams{ID: task.ID})
	var res a2a.CancelTaskResult
	if err := json.Unmarshal(canceled.Result, &res); err != nil {
		t.Fatal(err)
	}
	if res.NoOp || res.Task.Status.State != a2a.TaskStateCanceled {
		t.Errorf("cancel result = %+v", res)
	}

	again := call(t, srv, a2a.MethodMessageSend, a2a.MessageSendParams{
		Message: a2a.NewUserTextMessage("June 15", "trip", task.ID),
	})
	if again.Error == nil || again.Error.Code != a2a.ErrorCodeTaskClosed {
		t.Errorf("message to canceled task error = %+v, want code %d", again.Error, a2a.ErrorCodeTaskClosed)
	}

	listed := call(t, srv, a2a.MethodTasksList, a2a.ListTasksParams{ContextID: "trip"})
	var list a2a.ListTasksResult
	if err := json.Unmarshal(listed.Result, &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Tasks) != 1 || list.Tasks[0].ID != task.ID {
		t.Errorf("tasks/list = %v", list.Tasks)
	}
}

// readSSE returns the event names and data payloads of an SSE body.
func readSSE(t *testing.T, resp *http.Response) (names []string, payloads []rpcResponse) {
	t.Helper()
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			names = append(names, strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			var out rpcResponse
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &out); err != nil {
				t.Fatalf("decode event: %v", err)
			}
			payloads = append(payloads, out)
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatal(err)
	}
	return names, payloads
}

func TestJSONRPCStream(t *testing.T) {
	srv := newTestServer(t)

	params, _ := json.Marshal(a2a.MessageSendParams{
		Message: a2a.NewUserTextMessage("Book a hotel in Paris", "trip", ""),
	})
	body, _ := json.Marshal(a2a.JSONRPCRequest{
		JSONRPC: a2a.JSONRPCVersion,
		ID:      jsontext.Value(`"s-1"`),
		Method:  a2a.MethodMessageStream,
		Params:  params,
	})
	resp, err := http.Post(srv.URL+"/", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	names, payloads := readSSE(t, resp)
	if diff := cmp.Diff([]string{
		"status-update", "status-update", "artifact-update", "status-update",
	}, names); diff != "" {
		t.Errorf("event names mismatch (-want +got):\n%s", diff)
	}

	var states []a2a.TaskState
	finals := 0
	for _, p := range payloads {
		if string(p.ID) != `"s-1"` {
			t.Errorf("event id = %s, want \"s-1\"", p.ID)
		}
		var ev struct {
			Kind   string         `json:"kind"`
			Status a2a.TaskStatus `json:"status"`
			Final  bool           `json:"final"`
		}
		if err := json.Unmarshal(p.Result, &ev); err != nil {
			t.Fatal(err)
		}
		if ev.Kind == "status-update" {
			states = append(states, ev.Status.State)
		}
		if ev.Final {
			finals++
		}
	}
	if diff := cmp.Diff([]a2a.TaskState{
		a2a.TaskStateSubmitted, a2a.TaskStateWorking, a2a.TaskStateCompleted,
	}, states); diff != "" {
		t.Errorf("states mismatch (-want +got):\n%s", diff)
	}
	if finals != 1 {
		t.Errorf("%d final events, want 1", finals)
	}
}
