package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"ytcbow/config"
	"ytcbow/model"
	"ytcbow/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeYouTube serves canned responses keyed by "<method>?<pageToken>".
type fakeYouTube struct {
	mu        sync.Mutex
	responses map[string]string
	requests  []url.Values
	paths     []string
}

func (f *fakeYouTube) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	method := strings.TrimPrefix(r.URL.Path, "/youtube/v3/")
	q := r.URL.Query()
	f.requests = append(f.requests, q)
	f.paths = append(f.paths, method)

	body, ok := f.responses[method+"?"+q.Get("pageToken")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":404,"message":"not found"}}`)
		return
	}
	fmt.Fprint(w, body)
}

func (f *fakeYouTube) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.APIBaseURL = srv.URL + "/youtube/v3"
	return NewClient(cfg, "test-key").WithRetry(RetryConfig{
		Attempts: 3,
		Sleep:    func(context.Context, time.Duration) error { return nil },
	})
}

func thread(id string, text string, likes int) string {
	return fmt.Sprintf(`{"id":%q,"snippet":{"topLevelComment":{"id":%q,"snippet":{
		"authorDisplayName":"author-%s","authorChannelId":{"value":"UC-%s"},
		"textDisplay":%q,"likeCount":%d,"publishedAt":"2020-01-01T00:00:00Z","updatedAt":"2020-01-02T00:00:00Z"}}}}`,
		id, id, id, id, text, likes)
}

func playlistPage(next string, ids ...string) string {
	items := make([]string, len(ids))
	for i, id := range ids {
		items[i] = fmt.Sprintf(`{"contentDetails":{"videoId":%q}}`, id)
	}
	nextField := ""
	if next != "" {
		nextField = fmt.Sprintf(`,"nextPageToken":%q`, next)
	}
	return `{"items":[` + strings.Join(items, ",") + `]` + nextField + `}`
}

const channelsResponse = `{"items":[{"id":"UC1",
	"snippet":{"title":"Channel One"},
	"statistics":{"videoCount":"3"},
	"contentDetails":{"relatedPlaylists":{"uploads":"UU1"}}}]}`

func TestClientGetQuery(t *testing.T) {
	fake := &fakeYouTube{responses: map[string]string{"videos?": `{"items":[]}`}}
	client := newTestClient(t, fake)

	raw, err := client.Get(context.Background(), "videos", map[string]string{"id": "v1", "pageToken": ""})
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[]}`, string(raw))

	require.Len(t, fake.requests, 1)
	q := fake.requests[0]
	assert.Equal(t, "v1", q.Get("id"))
	assert.Equal(t, "test-key", q.Get("key"))
	assert.Equal(t, "user1", q.Get("quotaUser"))
	_, hasToken := q["pageToken"]
	assert.False(t, hasToken)
}

func TestClientRetriesInvalidJSON(t *testing.T) {
	var calls int
	var mu sync.Mutex
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls < 3 {
			fmt.Fprint(w, "<html>backend error</html>")
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	})

	client := newTestClient(t, handler)
	var sleeps int
	client.retry = RetryConfig{
		Attempts: 10,
		Delay:    time.Second,
		Sleep: func(_ context.Context, d time.Duration) error {
			assert.Equal(t, time.Second, d)
			sleeps++
			return nil
		},
	}

	raw, err := client.Get(context.Background(), "videos", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, sleeps, "sleeps before every attempt, including the first")
}

func TestClientGivesUpWithLastError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	})
	client := newTestClient(t, handler)

	_, err := client.Get(context.Background(), "videos", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "giving up after 3 attempts")
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestClientNon200JSONIsReturned(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"quotaExceeded"}}`)
	})
	client := newTestClient(t, handler)

	raw, err := client.Get(context.Background(), "videos", nil)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "quotaExceeded")
}

func TestRetryDoHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RetryDo(ctx, RetryConfig{Attempts: 5, Delay: time.Hour}, nil, func() (int, error) {
		t.Fatal("fn must not run after cancellation")
		return 0, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUploadsPaginates(t *testing.T) {
	fake := &fakeYouTube{responses: map[string]string{
		"channels?":        channelsResponse,
		"playlistItems?":   playlistPage("p2", "a", "b"),
		"playlistItems?p2": playlistPage("", "c"),
	}}
	client := newTestClient(t, fake)
	st := store.NewFileStore(t.TempDir())
	ctx := context.Background()

	ch := NewChannel(ctx, st, client, "UC1")
	ids, err := ch.Uploads(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	state := ch.State()
	require.NotNil(t, state.UploadsPlaylistID)
	assert.Equal(t, "UU1", *state.UploadsPlaylistID)
	assert.Equal(t, "Channel One", state.Info.Snippet["title"])

	assert.Equal(t, []string{"channels", "playlistItems", "playlistItems"}, fake.paths)
	assert.Equal(t, "UU1", fake.requests[1].Get("playlistId"))
	assert.Equal(t, "50", fake.requests[1].Get("maxResults"))
	assert.Equal(t, "contentDetails", fake.requests[1].Get("part"))

	require.NoError(t, ch.Store(ctx))
	var stored model.Channel
	require.NoError(t, st.Restore(ctx, store.CategoryChannels, "UC1", &stored))
	assert.Equal(t, []string{"a", "b", "c"}, stored.UploadIDs)
}

func TestUploadsFixedPoint(t *testing.T) {
	fake := &fakeYouTube{responses: map[string]string{
		"playlistItems?":   playlistPage("p2", "a", "b"),
		"playlistItems?p2": playlistPage("", "c"),
	}}
	client := newTestClient(t, fake)
	st := store.NewFileStore(t.TempDir())
	ctx := context.Background()

	playlist := "UU1"
	require.NoError(t, st.Store(ctx, store.CategoryChannels, "UC1", model.Channel{
		ID: "UC1", UploadIDs: []string{"a", "b", "c"}, UploadsPlaylistID: &playlist,
	}))

	ch := NewChannel(ctx, st, client, "UC1")
	ids, err := ch.Uploads(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, 1, fake.count())
}

func TestUploadsKeepsKnownOrder(t *testing.T) {
	fake := &fakeYouTube{responses: map[string]string{
		"playlistItems?":   playlistPage("p2", "new", "b"),
		"playlistItems?p2": playlistPage("p3", "c"),
	}}
	client := newTestClient(t, fake)
	st := store.NewFileStore(t.TempDir())
	ctx := context.Background()

	playlist := "UU1"
	require.NoError(t, st.Store(ctx, store.CategoryChannels, "UC1", model.Channel{
		ID: "UC1", UploadIDs: []string{"b", "c"}, UploadsPlaylistID: &playlist,
	}))

	ids, err := NewChannel(ctx, st, client, "UC1").Uploads(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "new"}, ids)
	assert.Equal(t, 2, fake.count(), "second page is a subset, p3 is never requested")
}

func TestUploadsLocal(t *testing.T) {
	fake := &fakeYouTube{}
	client := newTestClient(t, fake)
	st := store.NewFileStore(t.TempDir())
	ctx := context.Background()
	require.NoError(t, st.Store(ctx, store.CategoryChannels, "UC1", model.Channel{ID: "UC1", UploadIDs: []string{"x"}}))

	ids, err := NewChannel(ctx, st, client, "UC1").Uploads(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, ids)
	assert.Zero(t, fake.count())
}

func TestUploadsPlaylistShapeError(t *testing.T) {
	fake := &fakeYouTube{responses: map[string]string{
		"channels?": `{"error":{"code":403,"message":"quotaExceeded"}}`,
	}}
	client := newTestClient(t, fake)
	ctx := context.Background()

	_, err := NewChannel(ctx, store.NewFileStore(t.TempDir()), client, "UC1").UploadsPlaylist(ctx, true)
	var shape *ShapeError
	require.True(t, errors.As(err, &shape))
	assert.Equal(t, "items", shape.Key)
	assert.Contains(t, string(shape.Raw), "quotaExceeded")
	assert.Equal(t, 1, fake.count(), "shape errors are not retried")
}

func TestUploadsErrorLeavesStateUnchanged(t *testing.T) {
	fake := &fakeYouTube{responses: map[string]string{
		"playlistItems?": playlistPage("broken", "a", "b"),
	}}
	client := newTestClient(t, fake)
	st := store.NewFileStore(t.TempDir())
	ctx := context.Background()
	playlist := "UU1"
	require.NoError(t, st.Store(ctx, store.CategoryChannels, "UC1", model.Channel{ID: "UC1", UploadsPlaylistID: &playlist}))

	ch := NewChannel(ctx, st, client, "UC1")
	partial, err := ch.Uploads(ctx, true)
	require.Error(t, err)
	assert.Equal(t, []string{"a", "b"}, partial)
	assert.Empty(t, ch.State().UploadIDs)
}

func TestCommentsPaginateAndDedup(t *testing.T) {
	withReply := `{"id":"t1","snippet":{"topLevelComment":{"id":"t1","snippet":{"textDisplay":"first","likeCount":5}}},
		"replies":{"comments":[{"id":"t1.r1","snippet":{"textDisplay":"reply","parentId":"t1","likeCount":1}}]}}`
	fake := &fakeYouTube{responses: map[string]string{
		"commentThreads?":   `{"items":[` + withReply + `,` + thread("t2", "second", 2) + `,` + thread("t2", "second", 2) + `],"nextPageToken":"n2"}`,
		"commentThreads?n2": `{"items":[` + thread("t2", "second", 2) + `,` + thread("t3", "third", 0) + `]}`,
	}}
	client := newTestClient(t, fake)
	ctx := context.Background()

	video := NewVideo(ctx, store.NewFileStore(t.TempDir()), client, "v1")
	threads, err := video.Comments(ctx, true)
	require.NoError(t, err)

	require.Len(t, threads, 3)
	assert.Equal(t, []string{"t1", "t2", "t3"}, []string{threads[0].ID, threads[1].ID, threads[2].ID})
	assert.Equal(t, "first", threads[0].Text)
	assert.Equal(t, int64(5), threads[0].Likes)
	assert.Nil(t, threads[0].Parent)
	require.Len(t, threads[0].Replies, 1)
	require.NotNil(t, threads[0].Replies[0].Parent)
	assert.Equal(t, "t1", *threads[0].Replies[0].Parent)
	assert.Equal(t, "author-t2", threads[1].Author)
	assert.Equal(t, "UC-t2", threads[1].AuthorID)

	assert.Equal(t, "snippet,replies", fake.requests[0].Get("part"))
	assert.Equal(t, "100", fake.requests[0].Get("maxResults"))
	assert.Equal(t, "v1", fake.requests[0].Get("videoId"))
}

func TestCommentsStopOnNoNewThreads(t *testing.T) {
	fake := &fakeYouTube{responses: map[string]string{
		"commentThreads?": `{"items":[` + thread("t1", "a", 0) + `],"nextPageToken":"n2"}`,
	}}
	client := newTestClient(t, fake)
	st := store.NewFileStore(t.TempDir())
	ctx := context.Background()
	require.NoError(t, st.Store(ctx, store.CategoryVideos, "v1", model.Video{
		ID: "v1", CommentsThreads: []model.Comment{{ID: "t1", Text: "a"}},
	}))

	threads, err := NewVideo(ctx, st, client, "v1").Comments(ctx, true)
	require.NoError(t, err)
	assert.Len(t, threads, 1)
	assert.Equal(t, 1, fake.count())
}

func TestCommentsMissingTopLevelID(t *testing.T) {
	fake := &fakeYouTube{responses: map[string]string{
		"commentThreads?": `{"items":[{"snippet":{}}]}`,
	}}
	client := newTestClient(t, fake)
	ctx := context.Background()

	_, err := NewVideo(ctx, store.NewFileStore(t.TempDir()), client, "v1").Comments(ctx, true)
	var shape *ShapeError
	require.True(t, errors.As(err, &shape))
	assert.Equal(t, "items[0].snippet.topLevelComment.id", shape.Key)
}

func TestVideoInfo(t *testing.T) {
	fake := &fakeYouTube{responses: map[string]string{
		"videos?": `{"items":[{"id":"v1","snippet":{"title":"Hello"},"statistics":{"viewCount":"7"}}]}`,
	}}
	client := newTestClient(t, fake)
	st := store.NewFileStore(t.TempDir())
	ctx := context.Background()

	video := NewVideo(ctx, st, client, "v1")
	info, err := video.Info(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, "7", info.Statistics["viewCount"])
	require.NotNil(t, video.State().Title)
	assert.Equal(t, "Hello", *video.State().Title)

	_, err = video.Info(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.count())

	require.NoError(t, video.Store(ctx))
	restored := NewVideo(ctx, st, client, "v1")
	assert.Equal(t, "Hello", *restored.State().Title)
}

func TestVideoInfoEmptyItems(t *testing.T) {
	fake := &fakeYouTube{responses: map[string]string{"videos?": `{"items":[]}`}}
	client := newTestClient(t, fake)
	ctx := context.Background()

	_, err := NewVideo(ctx, store.NewFileStore(t.TempDir()), client, "gone").Info(ctx, true)
	var shape *ShapeError
	assert.True(t, errors.As(err, &shape))
}

func TestNewVideoDiscardsMalformedRecord(t *testing.T) {
	dir := t.TempDir()
	st := store.NewFileStore(dir)
	ctx := context.Background()
	require.NoError(t, st.Store(ctx, store.CategoryVideos, "v1", map[string]any{"comments_threads": "oops"}))

	video := NewVideo(ctx, st, &fakeAPI{}, "v1")
	assert.Equal(t, "v1", video.ID())
	assert.Empty(t, video.State().CommentsThreads)
}

// fakeAPI answers nothing; it guards that local reads stay local.
type fakeAPI struct{}

func (fakeAPI) Get(context.Context, string, map[string]string) (json.RawMessage, error) {
	return nil, errors.New("unexpected remote call")
}
