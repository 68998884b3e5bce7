package domain

// VideoData is the record emitted by the upstream video-processing stage
// (download, frame extraction, OCR, transcription). It is immutable once
// produced; recipe extraction is a pure function of it, so redelivery of the
// same record is safe.
type VideoData struct {
	JobID           string      `json:"job_id"`
	VideoPath       string      `json:"video_path"`
	SourceURL       string      `json:"source_url,omitempty"`
	DurationSeconds float64     `json:"duration_seconds,omitempty"`
	Resolution      *Resolution `json:"resolution,omitempty"`
	FPS             float64     `json:"fps,omitempty"`
	Frames          []Frame     `json:"frames,omitempty"`
	AudioPath       string      `json:"audio_path,omitempty"`
	Transcription   string      `json:"transcription,omitempty"`
}

type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Frame is a single extracted video frame with its OCR result.
type Frame struct {
	Timestamp  float64 `json:"timestamp"`
	FramePath  string  `json:"frame_path"`
	OCRText    string  `json:"ocr_text,omitempty"`
	IsKeyframe bool    `json:"is_keyframe"`
}
