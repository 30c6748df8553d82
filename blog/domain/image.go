package domain

// Image is an image reference hosted by the content repository
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}
