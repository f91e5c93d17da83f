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

// Channel crawls a channel's uploads playlist into persisted state.
type Channel struct {
	state model.Channel
	store store.Store
	api   API
}

// NewChannel restores any previously stored state for id. Missing or
// unreadable records start a fresh channel.
func NewChannel(ctx context.Context, st store.Store, api API, id string) *Channel {
	c := &Channel{store: st, api: api}
	if err := st.Restore(ctx, store.CategoryChannels, id, &c.state); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[WARN] Discarding stored channel %s: %v", id, err)
		}
		c.state = model.Channel{}
	}
	c.state.ID = id
	if c.state.UploadIDs == nil {
		c.state.UploadIDs = []string{}
	}
	return c
}

func (c *Channel) ID() string { return c.state.ID }

// State returns a copy of the current channel record.
func (c *Channel) State() model.Channel {
	s := c.state
	s.UploadIDs = slices.Clone(c.state.UploadIDs)
	return s
}

// UploadsPlaylist returns the id of the channel's uploads playlist, querying
// the channels endpoint when remote is set or the id is not yet known. A remote
// query also refreshes the channel info.
func (c *Channel) UploadsPlaylist(ctx context.Context, remote bool) (string, error) {
	if c.state.UploadsPlaylistID != nil && !remote {
		return *c.state.UploadsPlaylistID, nil
	}

	raw, err := c.api.Get(ctx, "channels", map[string]string{
		"id":   c.state.ID,
		"part": "contentDetails,snippet,statistics",
	})
	if err != nil {
		return "", err
	}

	var resp model.ChannelListResponse
	if err := decode("channels", raw, &resp); err != nil {
		return "", err
	}
	if resp.Items == nil || len(*resp.Items) == 0 {
		return "", &ShapeError{Method: "channels", Key: "items", Raw: raw}
	}
	item := (*resp.Items)[0]
	if item.ContentDetails == nil || item.ContentDetails.RelatedPlaylists.Uploads == "" {
		return "", &ShapeError{Method: "channels", Key: "items[0].contentDetails.relatedPlaylists.uploads", Raw: raw}
	}

	uploads := item.ContentDetails.RelatedPlaylists.Uploads
	c.state.UploadsPlaylistID = &uploads
	c.state.Info = &model.Info{Snippet: item.Snippet, Statistics: item.Statistics}
	return uploads, nil
}

// Uploads returns the channel's upload ids. With remote unset the stored list is
// returned unchanged. Otherwise the uploads playlist is paged until a page
// holds nothing new or the playlist ends. Known ids keep their order and new ids
// follow in discovery order; ids are never removed.
func (c *Channel) Uploads(ctx context.Context, remote bool) ([]string, error) {
	if !remote {
		return slices.Clone(c.state.UploadIDs), nil
	}

	playlistID, err := c.UploadsPlaylist(ctx, false)
	if err != nil {
		return slices.Clone(c.state.UploadIDs), fmt.Errorf("channel %s uploads playlist: %w", c.state.ID, err)
	}

	fetch := func(ctx context.Context, token string) (page[string], error) {
		return c.playlistPage(ctx, playlistID, token)
	}
	step := func(known []string, ids []string) ([]string, bool) {
		set := toSet(known)
		var fresh []string
		for _, id := range ids {
			if _, ok := set[id]; !ok {
				set[id] = struct{}{}
				fresh = append(fresh, id)
			}
		}
		if len(fresh) == 0 {
			return known, true
		}
		metrics.CrawlNewItemsTotal.WithLabelValues("uploads").Add(float64(len(fresh)))
		return append(slices.Clone(known), fresh...), false
	}

	ids, err := foldPages(ctx, "uploads", slices.Clone(c.state.UploadIDs), fetch, step)
	if err != nil {
		return ids, fmt.Errorf("channel %s uploads: %w", c.state.ID, err)
	}
	if added := len(ids) - len(c.state.UploadIDs); added > 0 {
		log.Printf("[INFO] Channel %s: %d new uploads, %d total", c.state.ID, added, len(ids))
	}
	c.state.UploadIDs = ids
	return slices.Clone(ids), nil
}

func (c *Channel) playlistPage(ctx context.Context, playlistID, token string) (page[string], error) {
	raw, err := c.api.Get(ctx, "playlistItems", map[string]string{
		"playlistId": playlistID,
		"part":       "contentDetails",
		"maxResults": "50",
		"pageToken":  token,
	})
	if err != nil {
		return page[string]{}, err
	}

	var resp model.PlaylistItemListResponse
	if err := decode("playlistItems", raw, &resp); err != nil {
		return page[string]{}, err
	}
	if resp.Items == nil {
		return page[string]{}, &ShapeError{Method: "playlistItems", Key: "items", Raw: raw}
	}

	ids := make([]string, 0, len(*resp.Items))
	for i, item := range *resp.Items {
		if item.ContentDetails == nil || item.ContentDetails.VideoID == "" {
			return page[string]{}, &ShapeError{
				Method: "playlistItems",
				Key:    fmt.Sprintf("items[%d].contentDetails.videoId", i),
				Raw:    raw,
			}
		}
		ids = append(ids, item.ContentDetails.VideoID)
	}
	return page[string]{items: ids, next: resp.NextPageToken}, nil
}

// Videos builds a crawler for every known upload.
func (c *Channel) Videos(ctx context.Context) []*Video {
	videos := make([]*Video, 0, len(c.state.UploadIDs))
	for _, id := range c.state.UploadIDs {
		videos = append(videos, NewVideo(ctx, c.store, c.api, id))
	}
	return videos
}

// Store persists the channel record under "channels".
func (c *Channel) Store(ctx context.Context) error {
	return c.store.Store(ctx, store.CategoryChannels, c.state.ID, &c.state)
}
