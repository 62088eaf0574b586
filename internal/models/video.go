package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// VideoStatus defines the lifecycle state of a video
type VideoStatus string

const (
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusCompleted  VideoStatus = "completed"
	VideoStatusFailed     VideoStatus = "failed"
)

// VideoSource records how a video entered the system
type VideoSource string

const (
	VideoSourceGenerated VideoSource = "generated"
	VideoSourceUpload    VideoSource = "upload"
)

// Scene is one segment of a generated ad.
type Scene struct {
	VisualDescription string `json:"visual_description"`
	Dialogue          string `json:"dialogue,omitempty"`
}

// PromptData is the user-supplied description of the ad to generate.
type PromptData struct {
	Title           string                 `json:"title,omitempty"`
	Product         string                 `json:"product,omitempty"`
	TargetAudience  string                 `json:"target_audience,omitempty"`
	Character       string                 `json:"character,omitempty"`
	AspectRatio     string                 `json:"aspect_ratio,omitempty"`
	ProductImageURL string                 `json:"product_image_url,omitempty"`
	Platform        string                 `json:"platform,omitempty"`
	Scenes          []Scene                `json:"scenes,omitempty"`
	Segments        []Scene                `json:"segments,omitempty"` // flat-priced, see Pricing.GenerationCost
	Extra           map[string]interface{} `json:"extra,omitempty"`
}

// Video is a generation job or an uploaded clip.
type Video struct {
	ID           string                         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID       string                         `gorm:"index;not null;type:varchar(64)" json:"user_id"`
	PromptData   datatypes.JSONType[PromptData] `json:"prompt_data" swaggertype:"object"`
	VideoURL     string                         `json:"video_url,omitempty"`
	Status       VideoStatus                    `gorm:"type:varchar(20);index;not null" json:"status"`
	Source       VideoSource                    `gorm:"type:varchar(20);not null;default:'generated'" json:"source"`
	Cost         int64                          `gorm:"not null;default:0" json:"cost"`
	ErrorMessage string                         `json:"error_message,omitempty"`
	CreatedAt    time.Time                      `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time                      `json:"updated_at"`
}

// TableName overrides the table name
func (Video) TableName() string {
	return "videos"
}

func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
