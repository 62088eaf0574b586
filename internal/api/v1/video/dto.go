package video

import "ugcads-backend/internal/models"

type SceneRequest struct {
	VisualDescription string `json:"visual_description" binding:"required_without=Dialogue,max=2000"`
	Dialogue          string `json:"dialogue" binding:"max=2000"`
}

// PromptRequest describes the ad. Either scenes (charged per scene) or
// segments (charged a flat price) must be given.
type PromptRequest struct {
	Title           string                 `json:"title" binding:"max=200"`
	Product         string                 `json:"product" binding:"max=2000"`
	TargetAudience  string                 `json:"target_audience" binding:"max=1000"`
	Character       string                 `json:"character" binding:"max=1000"`
	AspectRatio     string                 `json:"aspect_ratio" binding:"omitempty,aspect_ratio"`
	ProductImageURL string                 `json:"product_image_url" binding:"omitempty,url"`
	Platform        string                 `json:"platform" binding:"max=50"`
	Scenes          []SceneRequest         `json:"scenes" binding:"omitempty,max=4,dive"`
	Segments        []SceneRequest         `json:"segments" binding:"omitempty,max=4,dive"`
	Extra           map[string]interface{} `json:"extra"`
}

type CreateVideoRequest struct {
	PromptData PromptRequest `json:"prompt_data"`
}

// InsufficientTokensData is returned with 402 so the client can send the user
// to the purchase page.
type InsufficientTokensData struct {
	PurchaseURL string `json:"purchase_url"`
	Required    int64  `json:"required"`
	Balance     int64  `json:"balance"`
}

type ListQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=processing completed failed"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

func (p PromptRequest) toModel() models.PromptData {
	return models.PromptData{
		Title:           p.Title,
		Product:         p.Product,
		TargetAudience:  p.TargetAudience,
		Character:       p.Character,
		AspectRatio:     p.AspectRatio,
		ProductImageURL: p.ProductImageURL,
		Platform:        p.Platform,
		Scenes:          toScenes(p.Scenes),
		Segments:        toScenes(p.Segments),
		Extra:           p.Extra,
	}
}

func toScenes(in []SceneRequest) []models.Scene {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.Scene, len(in))
	for i, s := range in {
		out[i] = models.Scene{VisualDescription: s.VisualDescription, Dialogue: s.Dialogue}
	}
	return out
}
