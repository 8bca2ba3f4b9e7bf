package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"gl-analytics/internal/eventlog"
	"gl-analytics/internal/workflow"
)

func newTestServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var resolved atomic.Int32
	mux := http.NewServeMux()

	writeJSON := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}

	mux.HandleFunc("GET /api/v4/groups/acme/issues", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("PRIVATE-TOKEN") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if got := r.URL.Query().Get("milestone"); got != "Sprint 4" {
			t.Errorf("milestone = %q", got)
		}
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("X-Next-Page", "2")
			writeJSON(w, `[{"id":100,"iid":1,"project_id":7,"title":"first","labels":["type::Bug","workflow::Done"],"created_at":"2021-03-15T08:00:00Z","closed_at":"2021-03-19T10:00:00Z"}]`)
		default:
			writeJSON(w, `[{"id":101,"iid":2,"project_id":7,"title":"second","labels":[],"created_at":"2021-03-16T08:00:00Z"}]`)
		}
	})

	mux.HandleFunc("GET /api/v4/projects/7/issues/1/resource_label_events", func(w http.ResponseWriter, r *http.Request) {
		resolved.Add(1)
		writeJSON(w, `[
			{"id":1,"action":"add","created_at":"2021-03-16T09:00:00Z","label":{"id":1,"name":"workflow::In Progress"}},
			{"id":2,"action":"remove","created_at":"2021-03-17T09:00:00Z","label":{"id":1,"name":"workflow::In Progress"}},
			{"id":3,"action":"add","created_at":"2021-03-17T09:00:00Z","label":{"id":2,"name":"workflow::Done"}},
			{"id":4,"action":"add","created_at":"2021-03-17T09:00:00Z","label":{"id":3,"name":"priority::high"}}
		]`)
	})
	mux.HandleFunc("GET /api/v4/projects/7/issues/1/resource_state_events", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[
			{"id":1,"state":"closed","created_at":"2021-03-18T10:00:00Z"},
			{"id":2,"state":"reopened","created_at":"2021-03-18T12:00:00Z"},
			{"id":3,"state":"closed","created_at":"2021-03-19T10:00:00Z"}
		]`)
	})
	mux.HandleFunc("GET /api/v4/projects/7/issues/1/closed_by", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"id":50,"iid":9,"project_id":7,"created_at":"2021-03-16T10:00:00Z","merged_at":"2021-03-18T09:00:00Z"}]`)
	})

	mux.HandleFunc("GET /api/v4/projects/7/issues/2/resource_label_events", func(w http.ResponseWriter, r *http.Request) {
		resolved.Add(1)
		writeJSON(w, `[]`)
	})
	mux.HandleFunc("GET /api/v4/projects/7/issues/2/resource_state_events", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[]`)
	})
	mux.HandleFunc("GET /api/v4/projects/7/issues/2/closed_by", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[]`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &resolved
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL:     baseURL + "/api/v4",
		Token:       "secret",
		Concurrency: 2,
		LabelScope:  "workflow::",
		TypeScope:   "type::",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestClient_ListIssues(t *testing.T) {
	srv, resolved := newTestServer(t)
	c := newTestClient(t, srv.URL)

	records, err := c.ListIssues(context.Background(), eventlog.Query{Group: "acme", Milestone: "Sprint 4"})
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 records across pages, got %d", len(records))
	}
	if resolved.Load() != 2 {
		t.Errorf("Expected both issues resolved, got %d", resolved.Load())
	}

	first := records[0]
	if first.IID != 1 || first.ProjectID != 7 || first.Type != "Bug" {
		t.Errorf("unexpected first record %+v", first)
	}
	if !first.ClosedAt.Equal(time.Date(2021, 3, 19, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("ClosedAt = %v", first.ClosedAt)
	}

	labels := first.EventsFrom(eventlog.SourceLabels)
	if len(labels) != 3 {
		t.Fatalf("Expected 3 workflow label events, got %d: %+v", len(labels), labels)
	}
	if labels[0].Label != "In Progress" || labels[0].Action != eventlog.Add {
		t.Errorf("scope prefix not stripped: %+v", labels[0])
	}
	if n := len(first.EventsFrom(eventlog.SourceState)); n != 3 {
		t.Errorf("Expected 3 state events, got %d", n)
	}
	mrs := first.EventsFrom(eventlog.SourceMergeRequest)
	if len(mrs) != 1 || mrs[0].End.IsZero() {
		t.Errorf("unexpected merge request events %+v", mrs)
	}

	if records[1].Type != "" || len(records[1].Events) != 0 {
		t.Errorf("unexpected second record %+v", records[1])
	}
}

func TestClient_ListIssuesBuildsHistory(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newTestClient(t, srv.URL)

	records, err := c.ListIssues(context.Background(), eventlog.Query{Group: "acme", Milestone: "Sprint 4"})
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	issue, err := eventlog.BuildIssue(records[0])
	if err != nil {
		t.Fatalf("BuildIssue: %v", err)
	}

	want := []string{
		workflow.LabelOpened, "In Progress", workflow.LabelMergeRequest, "Done",
		workflow.LabelClosed, workflow.LabelReopened, workflow.LabelClosed,
	}
	got := issue.History.Intervals()
	if len(got) != len(want) {
		t.Fatalf("Expected %d intervals, got %s", len(want), issue.History)
	}
	for i := range want {
		if got[i].Label != want[i] {
			t.Errorf("interval %d = %q, want %q", i, got[i].Label, want[i])
		}
	}
	if issue.ReopenedCount() != 1 {
		t.Errorf("ReopenedCount = %d", issue.ReopenedCount())
	}
}

func TestClient_ListIssuesState(t *testing.T) {
	tests := []struct {
		state   string
		want    string
		present bool
	}{
		{eventlog.StateClosed, "closed", true},
		{"opened", "opened", true},
		{"all", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			var sent string
			var present bool
			mux := http.NewServeMux()
			mux.HandleFunc("GET /api/v4/groups/acme/issues", func(w http.ResponseWriter, r *http.Request) {
				sent, present = r.URL.Query().Get("state"), r.URL.Query().Has("state")
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, `[]`)
			})
			srv := httptest.NewServer(mux)
			t.Cleanup(srv.Close)
			c := newTestClient(t, srv.URL)

			records, err := c.ListIssues(context.Background(), eventlog.Query{Group: "acme", Milestone: "m", State: tt.state})
			if err != nil {
				t.Fatalf("ListIssues: %v", err)
			}
			if len(records) != 0 {
				t.Errorf("Expected no records, got %d", len(records))
			}
			if present != tt.present || sent != tt.want {
				t.Errorf("state param = %q (present %v), want %q (present %v)", sent, present, tt.want, tt.present)
			}
		})
	}
}

func TestClient_ListIssuesError(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newTestClient(t, srv.URL)

	if _, err := c.ListIssues(context.Background(), eventlog.Query{Group: "unknown"}); err == nil {
		t.Error("Expected an error for an unknown group")
	}
	if _, err := c.ListIssues(context.Background(), eventlog.Query{}); err == nil {
		t.Error("Expected an error without a group")
	}
}

func TestNewClient_RequiresToken(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("Expected an error without a token")
	}
}

func TestIssueType(t *testing.T) {
	tests := []struct {
		labels []string
		scope  string
		want   string
	}{
		{[]string{"workflow::Done", "type::Feature"}, "type::", "Feature"},
		{[]string{"workflow::Done"}, "type::", ""},
		{[]string{"type::Bug"}, "", ""},
		{nil, "type::", ""},
	}
	for _, tt := range tests {
		if got := issueType(tt.labels, tt.scope); got != tt.want {
			t.Errorf("issueType(%v, %q) = %q, want %q", tt.labels, tt.scope, got, tt.want)
		}
	}
}
