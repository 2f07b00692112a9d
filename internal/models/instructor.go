package models

import "time"

// Instructor represents a teaching staff member being evaluated.
type Instructor struct {
	ID               string    `db:"id" json:"id"`
	InstructorNumber string    `db:"instructor_number" json:"instructor_number"`
	FullName         string    `db:"full_name" json:"full_name"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// InstructorFilter captures supported filters for listing instructors.
type InstructorFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// InstructorSubject is a teaching assignment row linking an instructor
// to a subject.
type InstructorSubject struct {
	ID           string    `db:"id" json:"id"`
	InstructorID string    `db:"instructor_id" json:"instructor_id"`
	SubjectID    string    `db:"subject_id" json:"subject_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// InstructorSubjectDetail joins an assignment row with subject info.
type InstructorSubjectDetail struct {
	InstructorID string `db:"instructor_id" json:"instructor_id"`
	SubjectID    string `db:"subject_id" json:"subject_id"`
	SubjectCode  string `db:"subject_code" json:"subject_code"`
	SubjectName  string `db:"subject_name" json:"subject_name"`
}

// InstructorDirectoryEntry is an instructor as shown on the admin
// dashboard: linked subjects plus the distinct enrolled-student count
// across those subjects.
type InstructorDirectoryEntry struct {
	ID               string       `json:"id"`
	InstructorNumber string       `json:"instructor_number"`
	FullName         string       `json:"full_name"`
	Subjects         []SubjectRef `json:"subjects"`
	StudentCount     int          `json:"student_count"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}
