package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"ytcbow/fetcher"
	"ytcbow/model"
	"ytcbow/store"
)

// Crawler refreshes channels and their videos into the record store.
type Crawler struct {
	store store.Store
	api   fetcher.API
}

func NewCrawler(st store.Store, api fetcher.API) *Crawler {
	return &Crawler{store: st, api: api}
}

// UpdateChannel refreshes the channel info and uploads, stores the channel, then
// refreshes and stores every upload's info and, when withComments is set, its
// comment threads. Videos the API reports in an unexpected shape (deleted,
// private, comments disabled) are logged and skipped; any other error aborts.
func (c *Crawler) UpdateChannel(ctx context.Context, channelID string, withComments bool) (model.CrawlResult, error) {
	result := model.CrawlResult{ChannelID: channelID, ProcessedAt: time.Now()}
	log.Printf("[INFO] Updating channel %s (comments=%v)", channelID, withComments)

	channel := fetcher.NewChannel(ctx, c.store, c.api, channelID)
	known := len(channel.State().UploadIDs)

	// refreshes channel info on every run
	if _, err := channel.UploadsPlaylist(ctx, true); err != nil {
		result.Error = err.Error()
		return result, err
	}
	ids, err := channel.Uploads(ctx, true)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	if err := channel.Store(ctx); err != nil {
		result.Error = err.Error()
		return result, err
	}
	result.Videos = len(ids)
	result.NewVideos = len(ids) - known

	for _, video := range channel.Videos(ctx) {
		if err := ctx.Err(); err != nil {
			result.Error = err.Error()
			return result, err
		}

		if _, err := video.Info(ctx, true); err != nil {
			if isShapeError(err) {
				log.Printf("[WARN] Skipping video %s: %v", video.ID(), err)
				continue
			}
			result.Error = err.Error()
			return result, err
		}

		if withComments {
			threads, err := video.Comments(ctx, true)
			switch {
			case err == nil:
				result.Comments += len(threads)
			case isShapeError(err):
				log.Printf("[WARN] Comments unavailable for video %s: %v", video.ID(), err)
			default:
				result.Error = err.Error()
				return result, err
			}
		}

		if err := video.Store(ctx); err != nil {
			result.Error = err.Error()
			return result, err
		}
	}

	result.Success = true
	log.Printf("[INFO] Channel %s updated: %d videos (%d new), %d comment threads",
		channelID, result.Videos, result.NewVideos, result.Comments)
	return result, nil
}

// DumpCommentLikes writes a JSON array of [text, likes] pairs covering the
// top-level comments of every upload of the channel. With remote set the
// uploads and comments are refreshed from the API and stored first.
func (c *Crawler) DumpCommentLikes(ctx context.Context, channelID string, remote bool, w io.Writer) (int, error) {
	channel := fetcher.NewChannel(ctx, c.store, c.api, channelID)
	if _, err := channel.Uploads(ctx, remote); err != nil {
		return 0, err
	}
	if remote {
		if err := channel.Store(ctx); err != nil {
			return 0, err
		}
	}

	rows := [][]any{}
	for _, video := range channel.Videos(ctx) {
		threads, err := video.Comments(ctx, remote)
		if err != nil {
			if isShapeError(err) {
				log.Printf("[WARN] Comments unavailable for video %s: %v", video.ID(), err)
				continue
			}
			return 0, err
		}
		if remote {
			if err := video.Store(ctx); err != nil {
				return 0, err
			}
		}
		for _, t := range threads {
			rows = append(rows, []any{t.Text, t.Likes})
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rows); err != nil {
		return 0, fmt.Errorf("encode comments: %w", err)
	}
	return len(rows), nil
}

func isShapeError(err error) bool {
	var shape *fetcher.ShapeError
	return errors.As(err, &shape)
}
