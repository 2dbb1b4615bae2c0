package domain

// VideoMetadata is what the resolver learns about the source before any
// bytes move. Field names track the upstream extractor's JSON output.
type VideoMetadata struct {
	VideoID      string `json:"video_id"`
	VideoURL     string `json:"video_url"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	ImageURI     string `json:"image_uri,omitempty"`
	Published    int64  `json:"published,omitempty"`
	UploaderID   string `json:"uploader_id,omitempty"`
	UploaderName string `json:"uploader_name,omitempty"`
	Ext          string `json:"ext"`
	MimeType     string `json:"mime_type"`
	Filesize     int64  `json:"filesize,omitempty"`

	// Availability hints, copied through to the failure classifier.
	IsLive           bool   `json:"is_live,omitempty"`
	LiveStatus       string `json:"live_status,omitempty"`
	ReleaseTimestamp int64  `json:"release_timestamp,omitempty"`
}

// SchedulingHint is the slice of metadata the classifier cares about when a
// failure might really be an availability-timing issue.
type SchedulingHint struct {
	IsLive           bool
	LiveStatus       string
	ReleaseTimestamp int64 // epoch seconds, 0 when unknown
}

// Hint extracts the scheduling hint, or nil if there is no metadata yet.
func (v *VideoMetadata) Hint() *SchedulingHint {
	if v == nil {
		return nil
	}
	return &SchedulingHint{
		IsLive:           v.IsLive,
		LiveStatus:       v.LiveStatus,
		ReleaseTimestamp: v.ReleaseTimestamp,
	}
}
