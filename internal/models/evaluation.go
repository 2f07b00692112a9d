package models

import "time"

// Evaluation records that a student has evaluated an instructor for a
// subject. The (student, subject, instructor) tuple is unique and the
// row is never mutated after creation.
type Evaluation struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	SubjectID    string    `db:"subject_id" json:"subject_id"`
	InstructorID string    `db:"instructor_id" json:"instructor_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// EnrolledSubject is a roster source row: one of the student's subject
// enrollments joined to an assigned instructor, if any. A subject with
// multiple instructors yields multiple rows ordered by assignment age.
type EnrolledSubject struct {
	SubjectID      string  `db:"subject_id"`
	SubjectCode    string  `db:"subject_code"`
	SubjectName    string  `db:"subject_name"`
	SubjectIcon    *string `db:"subject_icon"`
	InstructorID   *string `db:"instructor_id"`
	InstructorName *string `db:"instructor_name"`
}

// RosterSubject is the subject shape inside a roster entry.
type RosterSubject struct {
	ID   string  `json:"id"`
	Code string  `json:"code"`
	Name string  `json:"name"`
	Icon *string `json:"icon,omitempty"`
}

// RosterInstructor is the instructor shape inside a roster entry.
type RosterInstructor struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

// RosterEntry is one (subject, instructor) pair a student must
// evaluate, with its evaluation status.
type RosterEntry struct {
	Subject      RosterSubject    `json:"subject"`
	Instructor   RosterInstructor `json:"instructor"`
	HasEvaluated bool             `json:"has_evaluated"`
}
