package model

import "time"

// RecalcJob asks the service to refetch and rescore one site.
type RecalcJob struct {
	JobID      string    `json:"jobId"` // shared by every site of one batch request
	SiteID     string    `json:"siteId"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}
