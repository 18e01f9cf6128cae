// Package queue defines message payloads exchanged over the message broker.
package queue

// FormSubmittedEvent is published when a form submission is stored.  It
// carries enough for downstream consumers (notification log, CRM import,
// analytics) without querying the primary database.  UserID is zero for
// anonymous submissions.
type FormSubmittedEvent struct {
    SubmissionID uint64 `json:"submission_id"`
    FormType     string `json:"form_type"`
    Name         string `json:"name"`
    Email        string `json:"email"`
    Phone        string `json:"phone,omitempty"`
    Message      string `json:"message,omitempty"`
    UserID       uint64 `json:"user_id,omitempty"`
    SubmittedAt  string `json:"submitted_at"`
}
