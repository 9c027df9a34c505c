package model

// DownloadStatus represents the current state of a video in the download queue
type DownloadStatus int

const (
	// StatusPending is the state of a video that has not been downloaded yet
	StatusPending DownloadStatus = iota
	// StatusDownloading indicates the video file is being transferred
	StatusDownloading
	// StatusVerifying indicates the downloaded file is being checked
	StatusVerifying
	// StatusCompleted indicates the video was downloaded and recorded
	StatusCompleted
	// StatusFailed indicates all download attempts failed
	StatusFailed
)

// String returns the string representation of the DownloadStatus
func (s DownloadStatus) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusDownloading:
		return "Downloading"
	case StatusVerifying:
		return "Verifying"
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Video is a single entry in the videos.json database. The JSON field names
// are the wire contract of the POST /dailyvids payload, so they cannot change.
type Video struct {
	VideoName  string `json:"videoName"`
	VideoURL   string `json:"videoUrl"`
	Downloaded bool   `json:"downloaded"`
}

// Progress reports the state of one download to observers such as the
// terminal monitor.
type Progress struct {
	VideoName    string
	Status       DownloadStatus
	CurrentBytes int64
	TotalBytes   int64
	Speed        float64 // bytes per second
	Err          error
}
