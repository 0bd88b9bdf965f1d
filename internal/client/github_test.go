package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
)

type nopLogger struct{}

func (nopLogger) Debugf(format string, v ...any) {}
func (nopLogger) Infof(format string, v ...any)  {}
func (nopLogger) Warnf(format string, v ...any)  {}
func (nopLogger) Errorf(format string, v ...any) {}

func newGitHubTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return Client{Client: srv.Client(), GitHubAPIURL: srv.URL, Logger: nopLogger{}}
}

func TestGitHubUserProfile(t *testing.T) {
	t.Parallel()
	c := newGitHubTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/octocat" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"login":"octocat","name":"The Octocat","public_repos":8,"followers":4000}`)
	})

	p, err := c.GitHubUserProfile(context.Background(), "octocat", false)
	if err != nil {
		t.Fatalf("GitHubUserProfile unexpected error: %+v", err)
	}
	if got, want := p.Username, "octocat"; got != want {
		t.Errorf("Username = %q, want %q", got, want)
	}
	if got, want := p.Followers, 4000; got != want {
		t.Errorf("Followers = %d, want %d", got, want)
	}

	_, err = c.GitHubUserProfile(context.Background(), "no-such-user", false)
	if !errors.Is(err, ErrGitHubUserNotFound) {
		t.Errorf("missing user error = %v, want ErrGitHubUserNotFound", err)
	}
}

func TestGitHubWeeklyCommitCount(t *testing.T) {
	t.Parallel()
	now := time.Now()
	events := []map[string]any{
		{"type": "PushEvent", "created_at": now.Add(-24 * time.Hour), "payload": map[string]any{"size": 3}},
		{"type": "PushEvent", "created_at": now.Add(-6 * 24 * time.Hour), "payload": map[string]any{"size": 2}},
		// Outside the 7 day window.
		{"type": "PushEvent", "created_at": now.Add(-10 * 24 * time.Hour), "payload": map[string]any{"size": 9}},
		// Not a push.
		{"type": "WatchEvent", "created_at": now.Add(-24 * time.Hour), "payload": map[string]any{"size": 7}},
	}
	c := newGitHubTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/octocat/events" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(events)
	})

	count, err := c.GitHubWeeklyCommitCount("octocat")
	if err != nil {
		t.Fatalf("GitHubWeeklyCommitCount unexpected error: %+v", err)
	}
	if got, want := count, 5; got != want {
		t.Errorf("weekly commit count = %d, want %d", got, want)
	}

	_, err = c.GitHubWeeklyCommitCount("no-such-user")
	if !errors.Is(err, ErrGitHubUserNotFound) {
		t.Errorf("missing user error = %v, want ErrGitHubUserNotFound", err)
	}
}

func TestGitHubTotalStars(t *testing.T) {
	t.Parallel()
	c := newGitHubTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/octocat/repos" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `[{"name":"a","stargazers_count":10},{"name":"b","stargazers_count":32},{"name":"c"}]`)
	})

	stars, err := c.GitHubTotalStars(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("GitHubTotalStars unexpected error: %+v", err)
	}
	if got, want := stars, 42; got != want {
		t.Errorf("total stars = %d, want %d", got, want)
	}
}

func TestGitHubRepoReadme(t *testing.T) {
	t.Parallel()
	content := base64.StdEncoding.EncodeToString([]byte("# Hello\n\nA readme."))
	c := newGitHubTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/octocat/hello/readme":
			fmt.Fprintf(w, `{"content":%q,"encoding":"base64"}`, content)
		default:
			http.NotFound(w, r)
		}
	})

	readme, err := c.GitHubRepoReadme("octocat", "hello")
	if err != nil {
		t.Fatalf("GitHubRepoReadme unexpected error: %+v", err)
	}
	if got, want := readme, "# Hello\n\nA readme."; got != want {
		t.Errorf("readme = %q, want %q", got, want)
	}

	_, err = c.GitHubRepoReadme("octocat", "bare")
	if !errors.Is(err, ErrGitHubReadmeNotFound) {
		t.Errorf("missing readme error = %v, want ErrGitHubReadmeNotFound", err)
	}
}

func TestGitHubRepoDetails(t *testing.T) {
	t.Parallel()
	c := newGitHubTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/octocat/hello":
			fmt.Fprint(w, `{"name":"hello","language":"Go","forks_count":3}`)
		case "/repos/octocat/hello/contributors":
			fmt.Fprint(w, `[{"login":"a","contributions":50},{"login":"b","contributions":40},{"login":"c","contributions":30},{"login":"d","contributions":20},{"login":"e","contributions":10},{"login":"f","contributions":1}]`)
		case "/repos/octocat/hello/stats/commit_activity":
			// 52 weekly entries; the last 4 carry the recent activity.
			weeks := make([]map[string]int, 52)
			for i := range weeks {
				weeks[i] = map[string]int{"total": 0}
			}
			weeks[49]["total"] = 2
			weeks[51]["total"] = 5
			_ = json.NewEncoder(w).Encode(weeks)
		default:
			http.NotFound(w, r)
		}
	})

	d, err := c.GitHubRepoDetails("octocat", "hello")
	if err != nil {
		t.Fatalf("GitHubRepoDetails unexpected error: %+v", err)
	}
	if got, want := d.Language, "Go"; got != want {
		t.Errorf("Language = %q, want %q", got, want)
	}
	if got, want := len(d.Contributors), 5; got != want {
		t.Errorf("contributors kept = %d, want %d", got, want)
	}
	if got, want := d.RecentCommits4Weeks, 7; got != want {
		t.Errorf("RecentCommits4Weeks = %d, want %d", got, want)
	}
	if d.ActivityPending {
		t.Error("ActivityPending = true, want false")
	}

	_, err = c.GitHubRepoDetails("octocat", "gone")
	if !errors.Is(err, ErrGitHubRepoNotFound) {
		t.Errorf("missing repo error = %v, want ErrGitHubRepoNotFound", err)
	}
}

func TestGitHubRepoDetailsActivityPending(t *testing.T) {
	t.Parallel()
	c := newGitHubTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/octocat/fresh":
			fmt.Fprint(w, `{"name":"fresh"}`)
		case "/repos/octocat/fresh/contributors":
			fmt.Fprint(w, `[]`)
		case "/repos/octocat/fresh/stats/commit_activity":
			w.WriteHeader(http.StatusAccepted)
		default:
			http.NotFound(w, r)
		}
	})

	d, err := c.GitHubRepoDetails("octocat", "fresh")
	if err != nil {
		t.Fatalf("GitHubRepoDetails unexpected error: %+v", err)
	}
	if !d.ActivityPending {
		t.Error("ActivityPending = false, want true")
	}
	if got, want := d.RecentCommits4Weeks, 0; got != want {
		t.Errorf("RecentCommits4Weeks = %d, want %d", got, want)
	}
}
