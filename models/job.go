package models

import (
	"time"

	"cloud.google.com/go/civil"
)

// JobStatus represents the current state of a job in the system
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// PDFJob represents an uploaded statement waiting to be imported
type PDFJob struct {
	ID             string      `json:"id"`
	SourceFile     string      `json:"source_file"`
	FileName       string      `json:"file_name"`
	Status         JobStatus   `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	StartedAt      time.Time   `json:"started_at,omitempty"`
	CompletedAt    time.Time   `json:"completed_at,omitempty"`
	ErrorMessage   string      `json:"error_message,omitempty"`
	ProcessingNode string      `json:"processing_node,omitempty"`
	PeriodStart    *civil.Date `json:"period_start,omitempty"`
	PeriodEnd      *civil.Date `json:"period_end,omitempty"`
	Cards          []string    `json:"cards,omitempty"`
	TransactionIDs []int64     `json:"transaction_ids,omitempty"`
}

// JobResult is what a worker reports back for a completed job
type JobResult struct {
	PeriodStart    civil.Date
	PeriodEnd      civil.Date
	Cards          []string
	TransactionIDs []int64
}

// Clone returns a copy of the job that shares no slices with the original
func (j *PDFJob) Clone() *PDFJob {
	c := *j
	if j.PeriodStart != nil {
		start := *j.PeriodStart
		c.PeriodStart = &start
	}
	if j.PeriodEnd != nil {
		end := *j.PeriodEnd
		c.PeriodEnd = &end
	}
	c.Cards = append([]string(nil), j.Cards...)
	c.TransactionIDs = append([]int64(nil), j.TransactionIDs...)
	return &c
}
