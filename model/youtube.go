package model

// YouTube Data API v3 response structures. List responses keep Items as a
// pointer so an absent "items" key can be told apart from an empty page.

type CommentThreadListResponse struct {
	Items         *[]CommentThreadItem `json:"items"`
	NextPageToken string               `json:"nextPageToken,omitempty"`
}

type CommentThreadItem struct {
	ID      string `json:"id"`
	Snippet struct {
		TopLevelComment *CommentItem `json:"topLevelComment"`
		TotalReplyCount int          `json:"totalReplyCount"`
	} `json:"snippet"`
	Replies *struct {
		Comments []CommentItem `json:"comments"`
	} `json:"replies,omitempty"`
}

type CommentItem struct {
	ID      string `json:"id"`
	Snippet struct {
		AuthorDisplayName string `json:"authorDisplayName"`
		AuthorChannelID   struct {
			Value string `json:"value"`
		} `json:"authorChannelId"`
		TextDisplay      string  `json:"textDisplay"`
		ParentID         *string `json:"parentId,omitempty"`
		LikeCount        int64   `json:"likeCount"`
		ModerationStatus string  `json:"moderationStatus,omitempty"`
		PublishedAt      string  `json:"publishedAt"`
		UpdatedAt        string  `json:"updatedAt"`
	} `json:"snippet"`
}

type PlaylistItemListResponse struct {
	Items         *[]PlaylistItem `json:"items"`
	NextPageToken string          `json:"nextPageToken,omitempty"`
}

type PlaylistItem struct {
	ID             string `json:"id"`
	ContentDetails *struct {
		VideoID string `json:"videoId"`
	} `json:"contentDetails"`
}

type ChannelListResponse struct {
	Items *[]ChannelItem `json:"items"`
}

type ChannelItem struct {
	ID             string         `json:"id"`
	Snippet        map[string]any `json:"snippet"`
	Statistics     map[string]any `json:"statistics"`
	ContentDetails *struct {
		RelatedPlaylists struct {
			Uploads string `json:"uploads"`
		} `json:"relatedPlaylists"`
	} `json:"contentDetails"`
}

type VideoListResponse struct {
	Items *[]VideoItem `json:"items"`
}

type VideoItem struct {
	ID         string         `json:"id"`
	Snippet    map[string]any `json:"snippet"`
	Statistics map[string]any `json:"statistics"`
}

// ToComment converts an API comment resource into the persisted form.
func (c CommentItem) ToComment() Comment {
	return Comment{
		ID:         c.ID,
		Author:     c.Snippet.AuthorDisplayName,
		AuthorID:   c.Snippet.AuthorChannelID.Value,
		Text:       c.Snippet.TextDisplay,
		Parent:     c.Snippet.ParentID,
		Likes:      c.Snippet.LikeCount,
		Moderation: c.Snippet.ModerationStatus,
		Published:  c.Snippet.PublishedAt,
		Updated:    c.Snippet.UpdatedAt,
		Replies:    []Comment{},
	}
}

// ToComment converts a thread into its top-level comment with replies attached.
// The caller must have checked TopLevelComment is present.
func (t CommentThreadItem) ToComment() Comment {
	top := t.Snippet.TopLevelComment.ToComment()
	if t.Replies != nil {
		for _, r := range t.Replies.Comments {
			top.Replies = append(top.Replies, r.ToComment())
		}
	}
	return top
}
