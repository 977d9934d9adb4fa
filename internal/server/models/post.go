package models

import "time"

// PostType tells lost items from found ones.
type PostType int16

const (
	PostLost  PostType = 0
	PostFound PostType = 1
)

func (t PostType) Valid() bool {
	return t == PostLost || t == PostFound
}

type Post struct {
	ID          int64
	Title       string
	Creator     int64
	Description *string
	Image       Blob
	Type        PostType
	Location1   string
	Location2   *string
	Date        time.Time
	ClosedBy    *int64
	ClosedDate  *time.Time
	ReportCount int
}

func (p *Post) IsClosed() bool {
	return p.ClosedBy != nil
}

// PostPatch lists the post fields a request wants to change.
type PostPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Image       *Blob   `json:"image"`
	Location1   *string `json:"location1"`
	Location2   *string `json:"location2"`
}

func (p PostPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Image == nil && p.Location1 == nil && p.Location2 == nil
}

// Confirmation is InitID's standing offer to close PostID with OtherID.
type Confirmation struct {
	PostID  int64
	InitID  int64
	OtherID int64
}
