package model

import "time"

// Info holds the raw snippet and statistics objects returned by the API.
type Info struct {
	Snippet    map[string]any `json:"snippet" bson:"snippet"`
	Statistics map[string]any `json:"statistics" bson:"statistics"`
}

// Comment is a persisted comment. Top-level comments carry their replies.
type Comment struct {
	ID         string    `json:"id" bson:"id"`
	Author     string    `json:"author" bson:"author"`
	AuthorID   string    `json:"author_id" bson:"author_id"`
	Text       string    `json:"text" bson:"text"`
	Parent     *string   `json:"parent" bson:"parent"`
	Likes      int64     `json:"likes" bson:"likes"`
	Moderation string    `json:"moderation" bson:"moderation"`
	Published  string    `json:"published" bson:"published"`
	Updated    string    `json:"updated" bson:"updated"`
	Replies    []Comment `json:"replies" bson:"replies"`
}

// Video is the persisted state of one video, stored under category "videos".
type Video struct {
	ID              string    `json:"id" bson:"id"`
	Title           *string   `json:"title" bson:"title"`
	Info            *Info     `json:"info" bson:"info"`
	CommentsThreads []Comment `json:"comments_threads" bson:"comments_threads"`
}

// Channel is the persisted state of one channel, stored under category "channels".
type Channel struct {
	ID                string   `json:"id" bson:"id"`
	Info              *Info    `json:"info" bson:"info"`
	UploadIDs         []string `json:"upload_ids" bson:"upload_ids"`
	UploadsPlaylistID *string  `json:"uploads_playlist_id" bson:"uploads_playlist_id"`
}

// CrawlRequest represents a channel crawl request via NATS
type CrawlRequest struct {
	ChannelID string `json:"channelId"`
	Comments  bool   `json:"comments"`
	RequestID string `json:"requestId"`
}

// CrawlResult represents the result of a channel crawl
type CrawlResult struct {
	ChannelID   string    `json:"channelId"`
	RequestID   string    `json:"requestId"`
	Success     bool      `json:"success"`
	Videos      int       `json:"videos"`
	NewVideos   int       `json:"newVideos"`
	Comments    int       `json:"comments"`
	Error       string    `json:"error,omitempty"`
	ProcessedAt time.Time `json:"processedAt"`
}
