package reconcile

import (
	"feedsync/core/entity"
	"feedsync/core/store"
)

// mergePost applies the non-nil fields of in onto rec.
func mergePost(rec *store.PostRecord, in *entity.Post, authorID, repostID, quoteID *string) {
	setString(&rec.Text, in.Text)
	if in.CreatedAt != nil {
		rec.PostedAt = in.CreatedAt.UnixMilli()
	}
	setString(&rec.AuthorID, authorID)
	setString(&rec.ConversationID, in.ConversationID)
	setString(&rec.InReplyToID, in.InReplyToID)
	setString(&rec.Language, in.Language)
	if repostID != nil {
		rec.RepostOfID = ptr(*repostID)
	}
	if quoteID != nil {
		rec.QuoteOfID = ptr(*quoteID)
	}
	if m := in.Metrics; m != nil {
		setInt(&rec.Metrics.Likes, m.Likes)
		setInt(&rec.Metrics.Reposts, m.Reposts)
		setInt(&rec.Metrics.Replies, m.Replies)
		setInt(&rec.Metrics.Quotes, m.Quotes)
	}
	if pl := in.Place; pl != nil {
		rec.Place = store.PlaceColumns{
			ID:          pl.ID,
			FullName:    pl.FullName,
			Country:     pl.Country,
			CountryCode: pl.CountryCode,
		}
	}
}

// mergeAccount applies the non-nil fields of in onto rec.
func mergeAccount(rec *store.AccountRecord, in *entity.Account) {
	setString(&rec.DisplayName, in.DisplayName)
	setString(&rec.Handle, in.Handle)
	if in.CreatedAt != nil {
		rec.JoinedAt = in.CreatedAt.UnixMilli()
	}
	setString(&rec.Bio, in.Bio)
	setString(&rec.Location, in.Location)
	setString(&rec.URL, in.URL)
	setString(&rec.ProfileImageURL, in.ProfileImageURL)
	setString(&rec.BannerURL, in.BannerURL)
	setBool(&rec.Protected, in.Protected)
	setBool(&rec.Verified, in.Verified)
	if m := in.Metrics; m != nil {
		setInt(&rec.Metrics.Followers, m.Followers)
		setInt(&rec.Metrics.Following, m.Following)
		setInt(&rec.Metrics.Listed, m.Listed)
		setInt(&rec.Metrics.Posts, m.Posts)
	}
}

func mediaRecords(postID string, media []entity.Media) []store.MediaRecord {
	out := make([]store.MediaRecord, len(media))
	for i, m := range media {
		out[i] = store.MediaRecord{
			PostID:     postID,
			Position:   i,
			MediaID:    m.ID,
			Type:       m.Type,
			URL:        m.URL,
			PreviewURL: m.PreviewURL,
			Width:      m.Width,
			Height:     m.Height,
			AltText:    m.AltText,
		}
	}
	return out
}

func mentionRecords(postID string, mentions []entity.Mention) []store.MentionRecord {
	out := make([]store.MentionRecord, len(mentions))
	for i, m := range mentions {
		out[i] = store.MentionRecord{
			PostID:   postID,
			Position: i,
			Start:    m.Start,
			End:      m.End,
			Username: m.Username,
		}
		if m.UserID != nil {
			out[i].UserID = ptr(*m.UserID)
		}
	}
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst **int64, v *int64) {
	if v != nil {
		*dst = ptr(*v)
	}
}

func ptr[T any](v T) *T {
	return &v
}
