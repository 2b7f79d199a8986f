package models

// JobCounts is the queue depth broken down by status. All four fields are
// always present in JSON so the dashboard never sees a missing key.
type JobCounts struct {
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Done       int `json:"done"`
	Failed     int `json:"failed"`
}

// StatusOverview is the read-only projection served to the dashboard
// poller. Numeric fields default to 0 and lists to empty, never omitted.
type StatusOverview struct {
	ServerTime     string        `json:"server_time"`
	UptimeSeconds  int64         `json:"uptime_seconds"`
	Users          int           `json:"users"`
	Jobs           JobCounts     `json:"jobs"`
	RecentJobs     []JobSummary  `json:"recent_jobs"`
	LinkedAccounts int           `json:"linked_accounts"`
	RecentPosts    []PostSummary `json:"recent_posts"`
}
