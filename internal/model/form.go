package model

import (
    "encoding/json"
    "time"
)

// FormSubmission mirrors the `form_submissions` table.  Submissions arrive
// from the public marketing site and may or may not belong to a logged-in
// user, so UserID is nullable.  AdditionalData carries an arbitrary JSON
// object supplied by the form (campaign fields, page context and the like)
// and is stored verbatim in a JSON column.
type FormSubmission struct {
    ID             uint64          // form_submissions.id
    FormType       string          // form_submissions.form_type (e.g. "contact", "quote")
    Name           string          // form_submissions.name
    Email          string          // form_submissions.email
    Phone          string          // form_submissions.phone (nullable)
    Message        string          // form_submissions.message (nullable)
    AdditionalData json.RawMessage // form_submissions.additional_data (nullable JSON)
    UserID         *uint64         // form_submissions.user_id (null for anonymous)
    SubmittedAt    time.Time       // form_submissions.submitted_at
}
