package ws

type MessageType string

const (
	MsgLogChunk         MessageType = "log_chunk"
	MsgDownloadProgress MessageType = "download_progress"
	MsgError            MessageType = "error"
)

// DownloadTopic carries Proton download progress messages.
const DownloadTopic = "proton-download"

// WSMessage is the envelope for every message pushed to clients. Topic lets
// a client subscribed to specific streams filter without inspecting the
// payload.
type WSMessage struct {
	Type    MessageType `json:"type"`
	Topic   string      `json:"topic,omitempty"`
	Payload interface{} `json:"payload"`
}
