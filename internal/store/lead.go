// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"solarlead/internal/models"
)

// LeadStore handles lead and lead-note persistence.
type LeadStore struct {
	db *sql.DB
}

// NewLeadStore creates a new LeadStore with the given database connection.
func NewLeadStore(db *sql.DB) *LeadStore {
	return &LeadStore{db: db}
}

// LeadInput carries validated intake fields into Create.
type LeadInput struct {
	Name        string
	Email       string
	Phone       *string
	Message     *string
	RequestType models.RequestType
	Source      string
}

const leadColumns = `id, name, email, phone, message, request_type, status, source,
	account_created, assigned_salesperson_id, created_at, updated_at`

func scanLead(row interface{ Scan(...any) error }) (*models.Lead, error) {
	l := &models.Lead{}
	err := row.Scan(
		&l.ID, &l.Name, &l.Email, &l.Phone, &l.Message, &l.RequestType,
		&l.Status, &l.Source, &l.AccountCreated, &l.AssignedSalespersonID,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Create inserts a lead from public intake with status "new".
func (s *LeadStore) Create(in LeadInput) (*models.Lead, error) {
	row := s.db.QueryRow(`
		INSERT INTO leads (name, email, phone, message, request_type, status, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+leadColumns,
		in.Name, in.Email, in.Phone, in.Message, in.RequestType,
		models.LeadStatusNew, in.Source,
	)
	l, err := scanLead(row)
	if err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}
	return l, nil
}

// CreateWithAccount inserts a lead and provisions a customer account for it
// in the same transaction. The account receives the generated password and
// the "user" role; the lead is marked account_created. A duplicate account
// email yields ErrConflict and nothing is persisted.
func (s *LeadStore) CreateWithAccount(in LeadInput, password string) (*models.Lead, *models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("create lead with account: %w", err)
	}
	defer tx.Rollback()

	u := &models.User{}
	err = tx.QueryRow(`
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, name, email, password_hash, totp_secret, totp_enabled, created_at, updated_at
	`, in.Name, in.Email, string(hash)).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&u.TOTPSecret, &u.TOTPEnabled, &u.CreatedAt, &u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return nil, nil, ErrConflict
	}
	if err != nil {
		return nil, nil, fmt.Errorf("create lead account: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE name = $2
	`, u.ID, models.RoleUser); err != nil {
		return nil, nil, fmt.Errorf("assign customer role: %w", err)
	}

	row := tx.QueryRow(`
		INSERT INTO leads (name, email, phone, message, request_type, status, source, account_created)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		RETURNING `+leadColumns,
		in.Name, in.Email, in.Phone, in.Message, in.RequestType,
		models.LeadStatusNew, in.Source,
	)
	l, err := scanLead(row)
	if err != nil {
		return nil, nil, fmt.Errorf("create lead: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("create lead with account: %w", err)
	}
	return l, u, nil
}

// List returns all leads, newest first. The assigned salesperson relation
// is NOT loaded here; use FindByID for the full resource.
func (s *LeadStore) List() ([]models.Lead, error) {
	rows, err := s.db.Query(`SELECT ` + leadColumns + ` FROM leads ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, *l)
	}
	return leads, rows.Err()
}

// FindByID retrieves a lead with its assigned salesperson loaded, when one
// is set. Returns nil if not found.
func (s *LeadStore) FindByID(id uuid.UUID) (*models.Lead, error) {
	l := &models.Lead{}
	var spID *uuid.UUID
	var spName, spEmail *string
	err := s.db.QueryRow(`
		SELECT l.id, l.name, l.email, l.phone, l.message, l.request_type, l.status,
		       l.source, l.account_created, l.assigned_salesperson_id,
		       l.created_at, l.updated_at,
		       u.id, u.name, u.email
		FROM leads l
		LEFT JOIN users u ON u.id = l.assigned_salesperson_id
		WHERE l.id = $1
	`, id).Scan(
		&l.ID, &l.Name, &l.Email, &l.Phone, &l.Message, &l.RequestType,
		&l.Status, &l.Source, &l.AccountCreated, &l.AssignedSalespersonID,
		&l.CreatedAt, &l.UpdatedAt,
		&spID, &spName, &spEmail,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find lead: %w", err)
	}
	if spID != nil {
		l.AssignedSalesperson = &models.Salesperson{ID: *spID, Name: *spName, Email: *spEmail}
	}
	return l, nil
}

// Assign sets the lead's salesperson. Returns the updated lead with the
// salesperson relation loaded, or ErrNotFound when the lead is missing.
func (s *LeadStore) Assign(id, salespersonID uuid.UUID) (*models.Lead, error) {
	res, err := s.db.Exec(`
		UPDATE leads SET assigned_salesperson_id = $1, updated_at = NOW() WHERE id = $2
	`, salespersonID, id)
	if err != nil {
		return nil, fmt.Errorf("assign lead: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.FindByID(id)
}

// LeadPatch holds optional field updates; nil fields are left untouched.
type LeadPatch struct {
	Status  *string
	Phone   *string
	Message *string
}

// Update applies a partial update to a lead. Returns ErrNotFound when the
// lead is missing.
func (s *LeadStore) Update(id uuid.UUID, patch LeadPatch) (*models.Lead, error) {
	res, err := s.db.Exec(`
		UPDATE leads SET
			status  = COALESCE($1, status),
			phone   = COALESCE($2, phone),
			message = COALESCE($3, message),
			updated_at = NOW()
		WHERE id = $4
	`, patch.Status, patch.Phone, patch.Message, id)
	if err != nil {
		return nil, fmt.Errorf("update lead: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.FindByID(id)
}

// Delete hard-deletes a lead; its notes cascade. Admin only at the route
// level. Returns ErrNotFound when the lead is missing.
func (s *LeadStore) Delete(id uuid.UUID) error {
	res, err := s.db.Exec(`DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddNote appends a staff note to a lead.
func (s *LeadStore) AddNote(leadID, authorID uuid.UUID, body string) (*models.LeadNote, error) {
	n := &models.LeadNote{}
	err := s.db.QueryRow(`
		INSERT INTO lead_notes (lead_id, author_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, lead_id, author_id, body, created_at
	`, leadID, authorID, body).Scan(&n.ID, &n.LeadID, &n.AuthorID, &n.Body, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("add lead note: %w", err)
	}
	return n, nil
}

// ListNotes returns a lead's notes oldest first, with author names joined.
func (s *LeadStore) ListNotes(leadID uuid.UUID) ([]models.LeadNote, error) {
	rows, err := s.db.Query(`
		SELECT n.id, n.lead_id, n.author_id, u.name, n.body, n.created_at
		FROM lead_notes n
		JOIN users u ON u.id = n.author_id
		WHERE n.lead_id = $1
		ORDER BY n.created_at ASC
	`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list lead notes: %w", err)
	}
	defer rows.Close()

	var notes []models.LeadNote
	for rows.Next() {
		var n models.LeadNote
		if err := rows.Scan(&n.ID, &n.LeadID, &n.AuthorID, &n.AuthorName, &n.Body, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lead note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// DeleteNote removes a single note. The lead ID is matched too so a note
// cannot be deleted through another lead's URL.
func (s *LeadStore) DeleteNote(leadID, noteID uuid.UUID) error {
	res, err := s.db.Exec(`
		DELETE FROM lead_notes WHERE id = $1 AND lead_id = $2
	`, noteID, leadID)
	if err != nil {
		return fmt.Errorf("delete lead note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
