package domain

import "time"

// SourceImage is an uploaded input image owned by the upload subsystem.
type SourceImage struct {
	ID               string
	OwnerID          string
	OriginalFilename string
	StorageKey       string
	MimeType         string
	FileSize         int64
	Width            int
	Height           int
	CreatedAt        time.Time
}

// GeneratedImage is one image returned by a model before persistence.
type GeneratedImage struct {
	MimeType string
	Data     []byte
}

// PersistedImage is a generated image as stored inside a job's result payload.
type PersistedImage struct {
	ID              string    `json:"id"`
	Filename        string    `json:"filename"`
	Base64          string    `json:"base64"`
	ThumbnailBase64 string    `json:"thumbnailBase64"`
	MimeType        string    `json:"mimeType"`
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	FileSize        int       `json:"fileSize"`
	DownloadURL     string    `json:"downloadUrl"`
	JobID           string    `json:"jobId"`
	SceneType       string    `json:"sceneType"`
	CreatedAt       time.Time `json:"createdAt"`
}

// SceneRef is the scene snapshot embedded in a result payload.
type SceneRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// ResultPayload is the JSON document written to a completed job.
type ResultPayload struct {
	JobID        string           `json:"jobId"`
	TextResponse string           `json:"textResponse"`
	Images       []PersistedImage `json:"images"`
	Model        string           `json:"model"`
	ProcessTime  int64            `json:"processTime"`
	SceneConfig  SceneRef         `json:"sceneConfig"`
	CompletedAt  time.Time        `json:"completedAt"`
}

// FindImage returns the image with the given id.
func (p *ResultPayload) FindImage(imageID string) (*PersistedImage, bool) {
	if p == nil {
		return nil, false
	}
	for i := range p.Images {
		if p.Images[i].ID == imageID {
			return &p.Images[i], true
		}
	}
	return nil, false
}

// TotalSize sums the byte size of every image.
func (p *ResultPayload) TotalSize() int {
	if p == nil {
		return 0
	}
	total := 0
	for _, img := range p.Images {
		total += img.FileSize
	}
	return total
}

// ImageIndexEntry is the lightweight per-image row of the secondary listing index.
type ImageIndexEntry struct {
	ID        string
	JobID     string
	OwnerID   string
	Filename  string
	MimeType  string
	FileSize  int
	Width     int
	Height    int
	SceneType string
}
