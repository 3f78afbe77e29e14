package send

// TextRequest is an outbound text message from an agent.
type TextRequest struct {
	ChannelID string `json:"channel_id" form:"channel_id"`
	Phone     string `json:"phone" form:"phone"`
	Message   string `json:"message" form:"message"`
}

// MediaRequest is an outbound media message. Kind is one of the media
// kinds the provider accepts (image, video, audio, document, sticker,
// ptt).
type MediaRequest struct {
	ChannelID string `json:"channel_id" form:"channel_id"`
	Phone     string `json:"phone" form:"phone"`
	Kind      string `json:"kind" form:"kind"`
	URL       string `json:"url" form:"url"`
	Caption   string `json:"caption,omitempty" form:"caption"`
	FileName  string `json:"file_name,omitempty" form:"file_name"`
}

type LocationRequest struct {
	ChannelID string  `json:"channel_id" form:"channel_id"`
	Phone     string  `json:"phone" form:"phone"`
	Latitude  float64 `json:"latitude" form:"latitude"`
	Longitude float64 `json:"longitude" form:"longitude"`
	Title     string  `json:"title,omitempty" form:"title"`
}

type ContactRequest struct {
	ChannelID    string `json:"channel_id" form:"channel_id"`
	Phone        string `json:"phone" form:"phone"`
	ContactName  string `json:"contact_name" form:"contact_name"`
	ContactPhone string `json:"contact_phone" form:"contact_phone"`
}
