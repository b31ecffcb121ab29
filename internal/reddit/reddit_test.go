package reddit

import (
	"blogsmith/internal/config"
	"blogsmith/internal/logger"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUA = "blogsmith-test:v1 (by /u/tester)"

func testConfig(baseURL string) config.Reddit {
	return config.Reddit{
		Subreddits:     []string{"technology"},
		Listings:       []string{"hot", "top?t=day", "new"},
		ListingLimit:   25,
		MinTitleLength: 15,
		MaxTitleLength: 300,
		BannedWords:    []string{"removed", "deleted"},
		Delay:          "0s",
		CommentLimit:   100,
		CommentDepth:   10,
		UserAgent:      testUA,
		BaseURL:        baseURL,
		OAuthURL:       baseURL + "/oauth",
		TokenURL:       baseURL + "/api/v1/access_token",
		AuthMode:       AuthPublic,
	}
}

func postsListing(titles ...string) map[string]any {
	children := make([]map[string]any, 0, len(titles))
	for i, title := range titles {
		children = append(children, map[string]any{
			"kind": "t3",
			"data": map[string]any{
				"id":        fmt.Sprintf("p%d", i),
				"title":     title,
				"permalink": fmt.Sprintf("/r/technology/comments/p%d/slug/", i),
				"score":     100 + i,
				"selftext":  "body " + title,
			},
		})
	}
	return map[string]any{"kind": "Listing", "data": map[string]any{"children": children}}
}

func comment(body string, replies ...map[string]any) map[string]any {
	var r any = ""
	if len(replies) > 0 {
		r = map[string]any{"kind": "Listing", "data": map[string]any{"children": replies}}
	}
	return map[string]any{"kind": "t1", "data": map[string]any{"body": body, "replies": r}}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestAcceptTitle_Bounds(t *testing.T) {
	c := NewClient(testConfig("http://unused"), logger.Discard())

	tests := []struct {
		name  string
		title string
		want  bool
	}{
		{"15 chars", strings.Repeat("a", 15), false},
		{"16 chars", strings.Repeat("a", 16), true},
		{"299 chars", strings.Repeat("a", 299), true},
		{"300 chars", strings.Repeat("a", 300), false},
		{"mixed case banned word", "This thread was ReMoVeD by the mods", false},
		{"banned word inside another", "Undeleted files recovered from old disks", false},
		{"emoji counts as two units", strings.Repeat("a", 14) + "\U0001F50B", true},
		{"emoji at the minimum", strings.Repeat("a", 13) + "\U0001F50B", false},
		{"emoji at the maximum", strings.Repeat("a", 298) + "\U0001F50B", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.acceptTitle(tt.title))
		})
	}
}

func TestTopics_EndpointFallbackAndFilter(t *testing.T) {
	var mu sync.Mutex
	var hits []string

	mux := http.NewServeMux()
	mux.HandleFunc("/r/technology/hot.json", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits = append(hits, "hot")
		mu.Unlock()
		http.Error(w, "busy", http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/r/technology/top.json", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits = append(hits, "top?"+r.URL.RawQuery)
		mu.Unlock()
		assert.Equal(t, testUA, r.Header.Get("User-Agent"))
		writeJSON(t, w, postsListing(
			"short",
			"This post was removed by moderators today",
			"[Deleted] something that used to be here",
			"New breakthrough in battery tech announced today",
		))
	})
	mux.HandleFunc("/r/technology/new.json", func(w http.ResponseWriter, r *http.Request) {
		t.Error("new should not be requested once top returned posts")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	picked := -1
	c := NewClient(testConfig(srv.URL), logger.Discard(), WithPicker(func(n int) int {
		picked = n
		return 0
	}))

	topics := c.Topics(context.Background())
	require.Len(t, topics, 1)
	assert.Equal(t, 1, picked, "only one title survives filtering")

	got := topics[0]
	assert.Equal(t, "New breakthrough in battery tech announced today", got.Title)
	assert.Equal(t, "technology", got.Subreddit)
	assert.Equal(t, "p3", got.ID)
	assert.Equal(t, 103, got.Score)
	assert.Equal(t, srv.URL+"/r/technology/comments/p3/slug/", got.URL)

	require.Len(t, hits, 2)
	assert.Equal(t, "hot", hits[0])
	assert.Contains(t, hits[1], "t=day")
	assert.Contains(t, hits[1], "limit=25")
}

func TestTopics_SkipsEmptySubredditsAndKeepsOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/r/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/r/first/"):
			writeJSON(t, w, postsListing("The first subreddit has a usable title"))
		case strings.HasPrefix(r.URL.Path, "/r/empty/"):
			writeJSON(t, w, postsListing())
		case strings.HasPrefix(r.URL.Path, "/r/filtered/"):
			writeJSON(t, w, postsListing("tiny"))
		case strings.HasPrefix(r.URL.Path, "/r/last/"):
			writeJSON(t, w, postsListing("The last subreddit also has a usable title"))
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Subreddits = []string{"first", "empty", "filtered", "last"}
	c := NewClient(cfg, logger.Discard(), WithPicker(func(int) int { return 0 }))

	topics := c.Topics(context.Background())
	require.Len(t, topics, 2)
	assert.Equal(t, "first", topics[0].Subreddit)
	assert.Equal(t, "last", topics[1].Subreddit)
}

func TestTopics_TotalFailureIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Subreddits = []string{"a", "b"}
	topics := NewClient(cfg, logger.Discard()).Topics(context.Background())
	assert.NotNil(t, topics)
	assert.Empty(t, topics)
}

func TestTopics_CancelledContextStopsEarly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected after cancellation")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, NewClient(testConfig(srv.URL), logger.Discard()).Topics(ctx))
}

func TestTopics_OAuth(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)
		assert.Equal(t, testUA, r.Header.Get("User-Agent"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "bot", r.PostForm.Get("username"))
		writeJSON(t, w, map[string]any{"access_token": "tok-123", "token_type": "bearer", "expires_in": 3600})
	})
	mux.HandleFunc("/oauth/r/technology/hot.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		writeJSON(t, w, postsListing("Authenticated listings return this title"))
	})
	mux.HandleFunc("/oauth/r/technology/comments/p0.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		writeJSON(t, w, []any{postsListing("x"), map[string]any{"kind": "Listing", "data": map[string]any{
			"children": []any{comment("authed comment")},
		}}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.AuthMode = AuthAuto
	cfg.ClientID, cfg.ClientSecret, cfg.Username, cfg.Password = "client-id", "client-secret", "bot", "pw"
	c := NewClient(cfg, logger.Discard(), WithPicker(func(int) int { return 0 }))

	topics := c.Topics(context.Background())
	require.Len(t, topics, 1)
	assert.Equal(t, "Authenticated listings return this title", topics[0].Title)
	assert.Equal(t, srv.URL+"/r/technology/comments/p0/slug/", topics[0].URL, "topic links stay public")

	assert.Equal(t, []string{"authed comment"}, c.Comments(context.Background(), "technology", "p0"))
}

func TestTopics_TokenFailureFallsBackToPublic(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusUnauthorized)
	})
	mux.HandleFunc("/oauth/", func(w http.ResponseWriter, r *http.Request) {
		t.Error("oauth endpoints must not be used without a token")
	})
	mux.HandleFunc("/r/technology/hot.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(t, w, postsListing("Public listings still work after token failure"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.AuthMode = AuthOAuth
	cfg.ClientID, cfg.ClientSecret, cfg.Username, cfg.Password = "id", "secret", "bot", "bad"

	topics := NewClient(cfg, logger.Discard()).Topics(context.Background())
	require.Len(t, topics, 1)
	assert.Equal(t, "Public listings still work after token failure", topics[0].Title)
}

func TestComments_PreOrderWithLimits(t *testing.T) {
	tree := []any{
		postsListing("the post itself"),
		map[string]any{"kind": "Listing", "data": map[string]any{"children": []any{
			comment("A",
				comment("A.1", comment("A.1.a")),
				comment("A.2"),
			),
			map[string]any{"kind": "more", "data": map[string]any{"count": 12}},
			comment("B"),
		}}},
	}
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "/r/technology/comments/abc.json", r.URL.Path)
		writeJSON(t, w, tree)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), logger.Discard())
	assert.Equal(t, []string{"A", "A.1", "A.1.a", "A.2", "B"}, c.Comments(context.Background(), "technology", "abc"))
	assert.Contains(t, gotQuery, "limit=100")
	assert.Contains(t, gotQuery, "depth=10")

	cfg := testConfig(srv.URL)
	cfg.CommentDepth = 2
	assert.Equal(t, []string{"A", "A.1", "A.2", "B"}, NewClient(cfg, logger.Discard()).Comments(context.Background(), "technology", "abc"))

	cfg = testConfig(srv.URL)
	cfg.CommentLimit = 3
	assert.Equal(t, []string{"A", "A.1", "A.1.a"}, NewClient(cfg, logger.Discard()).Comments(context.Background(), "technology", "abc"))
}

func TestComments_FailureIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	got := NewClient(testConfig(srv.URL), logger.Discard()).Comments(context.Background(), "technology", "abc")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFlatten_DeepChainIsBounded(t *testing.T) {
	node := comment("leaf")
	for i := 0; i < 500; i++ {
		node = comment(fmt.Sprintf("level-%d", i), node)
	}
	raw, err := json.Marshal([]any{node})
	require.NoError(t, err)
	var roots []thing
	require.NoError(t, json.Unmarshal(raw, &roots))

	bodies := flatten(roots, 10, 100)
	assert.Len(t, bodies, 10)
	assert.Equal(t, "level-499", bodies[0])
}

func TestPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []any{postsListing("A single post fetched by its link"), postsListing()})
	}))
	defer srv.Close()

	topic, err := NewClient(testConfig(srv.URL), logger.Discard()).Post(context.Background(), "technology", "p0")
	require.NoError(t, err)
	assert.Equal(t, "A single post fetched by its link", topic.Title)
	assert.Equal(t, "p0", topic.ID)
	assert.Equal(t, srv.URL+"/r/technology/comments/p0/slug/", topic.URL)
}

func TestParsePostURL(t *testing.T) {
	sub, id, err := ParsePostURL("https://www.reddit.com/r/golang/comments/1abcde/go_124_released/")
	require.NoError(t, err)
	assert.Equal(t, "golang", sub)
	assert.Equal(t, "1abcde", id)

	sub, id, err = ParsePostURL("https://old.reddit.com/r/saas/comments/xyz")
	require.NoError(t, err)
	assert.Equal(t, "saas", sub)
	assert.Equal(t, "xyz", id)

	for _, bad := range []string{
		"",
		"not a url",
		"https://example.com/r/golang/comments/abc/",
		"https://www.reddit.com/r/golang/",
		"https://notreddit.com/r/golang/comments/abc/",
	} {
		_, _, err := ParsePostURL(bad)
		assert.ErrorIs(t, err, ErrInvalidPostURL, bad)
	}
}
