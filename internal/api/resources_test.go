package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newResourceServer wires a client against a canned backend handler with a
// valid stored session, so no refresh traffic occurs.
func newResourceServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	newTestSession(t, "at-1", time.Now().Add(time.Hour))
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(backendConfig(srv.URL), newTokens("https://id.invalid"))
}

func TestSessionsList(t *testing.T) {
	client := newResourceServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/sessions" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"sessions": [
			{"id": "s-1", "channel": "telegram", "user_id": "u-1", "message_count": 12},
			{"id": "s-2", "channel": "discord", "user_id": "u-2", "message_count": 3}
		]}`)
	})

	sessions, err := client.Sessions(context.Background())
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != "s-1" || sessions[0].Channel != "telegram" {
		t.Errorf("unexpected first session: %+v", sessions[0])
	}
	if sessions[1].MessageCount != 3 {
		t.Errorf("message count = %d, want 3", sessions[1].MessageCount)
	}
}

func TestDeleteSession(t *testing.T) {
	client := newResourceServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		if r.URL.Path != "/api/v1/sessions/s-9" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.DeleteSession(context.Background(), "s-9"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
}

func TestSendChat(t *testing.T) {
	client := newResourceServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/chat" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["text"] != "hello there" || body["session_id"] != "s-1" {
			t.Errorf("unexpected body: %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"reply": "hi!", "session_id": "s-1"}`)
	})

	reply, err := client.SendChat(context.Background(), "s-1", "hello there")
	if err != nil {
		t.Fatalf("SendChat: %v", err)
	}
	if reply.Reply != "hi!" || reply.SessionID != "s-1" {
		t.Errorf("unexpected reply: %+v", reply)
	}
}

func TestUserFactsQuery(t *testing.T) {
	client := newResourceServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/user-memory/facts" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("user"); got != "u-7" {
			t.Errorf("user query = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"facts": [{"id": "f-1", "fact": "prefers metric units"}]}`)
	})

	facts, err := client.UserFacts(context.Background(), "u-7")
	if err != nil {
		t.Fatalf("UserFacts: %v", err)
	}
	if len(facts) != 1 || facts[0].Fact != "prefers metric units" {
		t.Errorf("unexpected facts: %+v", facts)
	}
}

func TestSetSetting(t *testing.T) {
	client := newResourceServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if r.URL.Path != "/api/v1/settings/reply.style" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["value"] != "concise" {
			t.Errorf("value = %q", body["value"])
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := client.SetSetting(context.Background(), "reply.style", "concise"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
}

func TestModels(t *testing.T) {
	client := newResourceServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/settings/models":
			fmt.Fprint(w, `{"models": ["gpt-omega", "claw-1"], "active": "claw-1"}`)
		case r.Method == http.MethodPut && r.URL.Path == "/api/v1/settings/models/active":
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["model"] != "gpt-omega" {
				t.Errorf("model = %q", body["model"])
			}
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})

	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if models.Active != "claw-1" || len(models.Models) != 2 {
		t.Errorf("unexpected models: %+v", models)
	}

	if err := client.SetActiveModel(context.Background(), "gpt-omega"); err != nil {
		t.Fatalf("SetActiveModel: %v", err)
	}
}

func TestLogsQuery(t *testing.T) {
	client := newResourceServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("level") != "warn" || q.Get("limit") != "25" || q.Get("since") != "cur-9" {
			t.Errorf("unexpected query: %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"entries": [{"level": "warn", "message": "queue backlog"}], "cursor": "cur-10"}`)
	})

	page, err := client.Logs(context.Background(), "warn", 25, "cur-9")
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if page.Cursor != "cur-10" || len(page.Entries) != 1 {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestRunTool(t *testing.T) {
	client := newResourceServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/tools/web_search/run" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body struct {
			Args map[string]any `json:"args"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Args["query"] != "go testing" {
			t.Errorf("args = %v", body.Args)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"output": "3 results"}`)
	})

	result, err := client.RunTool(context.Background(), "web_search", map[string]any{"query": "go testing"})
	if err != nil {
		t.Fatalf("RunTool: %v", err)
	}
	if result.Output != "3 results" {
		t.Errorf("output = %q", result.Output)
	}
}

func TestCalendarEventsRange(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	client := newResourceServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("from") != "2026-03-01T00:00:00Z" || q.Get("to") != "2026-03-08T00:00:00Z" {
			t.Errorf("unexpected range: %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"events": [{"id": "e-1", "title": "dentist"}]}`)
	})

	events, err := client.CalendarEvents(context.Background(), from, to)
	if err != nil {
		t.Fatalf("CalendarEvents: %v", err)
	}
	if len(events) != 1 || events[0].Title != "dentist" {
		t.Errorf("unexpected events: %+v", events)
	}
}

func TestTelegramProbe(t *testing.T) {
	client := newResourceServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"connected": true, "bot_username": "ares_bot"}`)
	})

	latency, err := client.TelegramProbe(context.Background())
	if err != nil {
		t.Fatalf("TelegramProbe: %v", err)
	}
	if latency <= 0 {
		t.Errorf("expected positive latency, got %v", latency)
	}
}

func TestTelegramProbeDisconnected(t *testing.T) {
	client := newResourceServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"connected": false}`)
	})

	// A 200 response reporting a down integration is still a probe failure.
	if _, err := client.TelegramProbe(context.Background()); err == nil {
		t.Fatal("expected error for disconnected bot, got nil")
	}
}
