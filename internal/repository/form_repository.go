package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/gch/gch-api-go/internal/model"
)

// FormRepo persists marketing form submissions (single 'form_submissions' table).
type FormRepo struct{ DB *sql.DB }

func NewFormRepo(db *sql.DB) *FormRepo { return &FormRepo{DB: db} }

// Create inserts a submission and returns the stored row.  UserID is nil for
// anonymous submissions; AdditionalData may be nil when the form carried no
// extra fields.
func (r *FormRepo) Create(ctx context.Context, s model.FormSubmission) (model.FormSubmission, error) {
	var extra interface{}
	if len(s.AdditionalData) > 0 {
		extra = []byte(s.AdditionalData)
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO form_submissions (form_type, name, email, phone, message, additional_data, user_id) VALUES (?,?,?,?,?,?,?)",
		s.FormType, s.Name, s.Email, nullString(s.Phone), nullString(s.Message), extra, s.UserID)
	if err != nil {
		return model.FormSubmission{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.FormSubmission{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a single submission by id.
func (r *FormRepo) GetByID(ctx context.Context, id uint64) (model.FormSubmission, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT id,form_type,name,email,phone,message,additional_data,user_id,submitted_at FROM form_submissions WHERE id=? LIMIT 1",
		id)
	return scanSubmission(row.Scan)
}

// ListAll returns every submission, newest first.  Used by the admin listing.
func (r *FormRepo) ListAll(ctx context.Context) ([]model.FormSubmission, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,form_type,name,email,phone,message,additional_data,user_id,submitted_at FROM form_submissions ORDER BY submitted_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

// ListByUser returns the submissions created by one user, newest first.
func (r *FormRepo) ListByUser(ctx context.Context, userID uint64) ([]model.FormSubmission, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,form_type,name,email,phone,message,additional_data,user_id,submitted_at FROM form_submissions WHERE user_id=? ORDER BY submitted_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

func collectSubmissions(rows *sql.Rows) ([]model.FormSubmission, error) {
	out := []model.FormSubmission{}
	for rows.Next() {
		s, err := scanSubmission(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSubmission(scan func(...any) error) (model.FormSubmission, error) {
	var (
		s       model.FormSubmission
		phone   sql.NullString
		message sql.NullString
		extra   []byte
		userID  sql.NullInt64
	)
	err := scan(&s.ID, &s.FormType, &s.Name, &s.Email, &phone, &message, &extra, &userID, &s.SubmittedAt)
	if err != nil {
		return model.FormSubmission{}, err
	}
	s.Phone = phone.String
	s.Message = message.String
	if len(extra) > 0 {
		s.AdditionalData = json.RawMessage(extra)
	}
	if userID.Valid {
		uid := uint64(userID.Int64)
		s.UserID = &uid
	}
	return s, nil
}
