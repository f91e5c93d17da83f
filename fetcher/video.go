package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"

	"ytcbow/metrics"
	"ytcbow/model"
	"ytcbow/store"
)

// Video crawls one video's info and comment threads.
type Video struct {
	state model.Video
	store store.Store
	api   API
}

// NewVideo restores any previously stored state for id. Missing or
// unreadable records start a fresh video.
func NewVideo(ctx context.Context, st store.Store, api API, id string) *Video {
	v := &Video{store: st, api: api}
	if err := st.Restore(ctx, store.CategoryVideos, id, &v.state); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[WARN] Discarding stored video %s: %v", id, err)
		}
		v.state = model.Video{}
	}
	v.state.ID = id
	if v.state.CommentsThreads == nil {
		v.state.CommentsThreads = []model.Comment{}
	}
	return v
}

func (v *Video) ID() string { return v.state.ID }

// State returns a copy of the current video record.
func (v *Video) State() model.Video {
	s := v.state
	s.CommentsThreads = slices.Clone(v.state.CommentsThreads)
	return s
}

// Comments returns the video's top-level comment threads. With remote set,
// commentThreads is paged until a page holds no unseen thread or the listing
// ends; unseen threads are appended in page order.
func (v *Video) Comments(ctx context.Context, remote bool) ([]model.Comment, error) {
	if !remote {
		return slices.Clone(v.state.CommentsThreads), nil
	}

	fetch := func(ctx context.Context, token string) (page[model.Comment], error) {
		return v.threadPage(ctx, token)
	}
	step := func(curr []model.Comment, threads []model.Comment) ([]model.Comment, bool) {
		seen := make(map[string]struct{}, len(curr))
		for _, c := range curr {
			seen[c.ID] = struct{}{}
		}
		var diff []model.Comment
		for _, t := range threads {
			if _, ok := seen[t.ID]; !ok {
				seen[t.ID] = struct{}{}
				diff = append(diff, t)
			}
		}
		if len(diff) == 0 {
			return curr, true
		}
		metrics.CrawlNewItemsTotal.WithLabelValues("comments").Add(float64(len(diff)))
		return append(slices.Clone(curr), diff...), false
	}

	threads, err := foldPages(ctx, "comments", slices.Clone(v.state.CommentsThreads), fetch, step)
	if err != nil {
		return threads, fmt.Errorf("video %s comments: %w", v.state.ID, err)
	}
	v.state.CommentsThreads = threads
	return slices.Clone(threads), nil
}

func (v *Video) threadPage(ctx context.Context, token string) (page[model.Comment], error) {
	raw, err := v.api.Get(ctx, "commentThreads", map[string]string{
		"videoId":    v.state.ID,
		"part":       "snippet,replies",
		"maxResults": "100",
		"pageToken":  token,
	})
	if err != nil {
		return page[model.Comment]{}, err
	}

	var resp model.CommentThreadListResponse
	if err := decode("commentThreads", raw, &resp); err != nil {
		return page[model.Comment]{}, err
	}
	if resp.Items == nil {
		return page[model.Comment]{}, &ShapeError{Method: "commentThreads", Key: "items", Raw: raw}
	}

	threads := make([]model.Comment, 0, len(*resp.Items))
	for i, item := range *resp.Items {
		if item.Snippet.TopLevelComment == nil || item.Snippet.TopLevelComment.ID == "" {
			return page[model.Comment]{}, &ShapeError{
				Method: "commentThreads",
				Key:    fmt.Sprintf("items[%d].snippet.topLevelComment.id", i),
				Raw:    raw,
			}
		}
		threads = append(threads, item.ToComment())
	}
	return page[model.Comment]{items: threads, next: resp.NextPageToken}, nil
}

// Info returns the video's snippet and statistics, querying the videos
// endpoint when remote is set or nothing is stored yet.
func (v *Video) Info(ctx context.Context, remote bool) (*model.Info, error) {
	if v.state.Info != nil && !remote {
		return v.state.Info, nil
	}

	raw, err := v.api.Get(ctx, "videos", map[string]string{
		"id":   v.state.ID,
		"part": "snippet,statistics",
	})
	if err != nil {
		return nil, fmt.Errorf("video %s info: %w", v.state.ID, err)
	}

	var resp model.VideoListResponse
	if err := decode("videos", raw, &resp); err != nil {
		return nil, err
	}
	if resp.Items == nil || len(*resp.Items) == 0 {
		return nil, &ShapeError{Method: "videos", Key: "items", Raw: raw}
	}

	item := (*resp.Items)[0]
	info := &model.Info{Snippet: item.Snippet, Statistics: item.Statistics}
	if info.Snippet == nil {
		info.Snippet = map[string]any{}
	}
	if info.Statistics == nil {
		info.Statistics = map[string]any{}
	}
	v.state.Info = info
	if title, ok := info.Snippet["title"].(string); ok {
		v.state.Title = &title
	}
	return info, nil
}

// Store persists the video record under "videos".
func (v *Video) Store(ctx context.Context) error {
	return v.store.Store(ctx, store.CategoryVideos, v.state.ID, &v.state)
}
