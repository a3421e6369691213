package model

import "fmt"

type MediaType string

const (
	MediaTypeImage   MediaType = "image"
	MediaTypeVideo   MediaType = "video"
	MediaTypeYoutube MediaType = "youtube"
)

var AllMediaType = []MediaType{
	MediaTypeImage,
	MediaTypeVideo,
	MediaTypeYoutube,
}

func (e MediaType) IsValid() bool {
	switch e {
	case MediaTypeImage, MediaTypeVideo, MediaTypeYoutube:
		return true
	}
	return false
}

func (e MediaType) String() string {
	return string(e)
}

// IsStored is true for media kept in our object storage. Youtube media is only
// a link and has nothing to clean up.
func (e MediaType) IsStored() bool {
	return e == MediaTypeImage || e == MediaTypeVideo
}

// Media is a single attachment of a post.
type Media struct {
	Type MediaType `json:"type"`
	URL  string    `json:"url"`
}

func (m Media) Validate() error {
	if !m.Type.IsValid() {
		return fmt.Errorf("%s is not a valid MediaType", m.Type)
	}
	if m.URL == "" {
		return fmt.Errorf("media of type %s has empty url", m.Type)
	}
	return nil
}
