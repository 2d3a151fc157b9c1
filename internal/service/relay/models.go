package relay

type Member struct {
	Id    string  `json:"id"`
	Name  *string `json:"name,omitempty"`
	Image *string `json:"image,omitempty"`
}

type QueueItem struct {
	VideoId   string  `json:"videoId"`
	Title     string  `json:"title"`
	Thumbnail *string `json:"thumbnail,omitempty"`
}
