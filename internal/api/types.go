package api

import "time"

// DependencyStatus reports the availability of one external tool the daemon
// needs, as surfaced by the status endpoint.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus is the payload returned by GET /api/status.
type DaemonStatus struct {
	Running        bool               `json:"running"`
	PID            int                `json:"pid"`
	ActiveChannels int                `json:"active_channels"`
	LibraryDBPath  string             `json:"library_db_path"`
	LockFilePath   string             `json:"lock_file_path"`
	Dependencies   []DependencyStatus `json:"dependencies"`
}

// RenderSummary describes one catalogued render in API responses.
type RenderSummary struct {
	ID              int64          `json:"id"`
	SessionID       string         `json:"session_id"`
	Kind            string         `json:"kind"`
	Title           string         `json:"title,omitempty"`
	ArtifactPath    string         `json:"artifact_path"`
	Inputs          map[string]any `json:"inputs,omitempty"`
	DurationSeconds float64        `json:"duration_seconds,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// LibraryListResponse is the payload returned by GET /api/library.
type LibraryListResponse struct {
	Renders []RenderSummary  `json:"renders"`
	Stats   map[string]int64 `json:"stats,omitempty"`
}

// LibraryMutationResponse is the payload returned by delete operations on the
// library endpoints.
type LibraryMutationResponse struct {
	Removed int64 `json:"removed"`
}

// NotifyTestResponse is the payload returned by POST /api/notify/test.
type NotifyTestResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
