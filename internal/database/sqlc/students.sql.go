package sqldb

import (
	"context"
	"database/sql"
)

// Student mirrors a row in the students table.
type Student struct {
	ID                 string
	FirstName          string
	LastName           string
	PreferredName      sql.NullString
	PronounsSubject    sql.NullString
	PronounsObject     sql.NullString
	PronounsPossessive sql.NullString
	NeedsJson          string
	CreatedAt          sql.NullTime
	UpdatedAt          sql.NullTime
}

const listStudents = `
SELECT id, first_name, last_name, preferred_name, pronouns_subject, pronouns_object, pronouns_possessive, needs_json, created_at, updated_at
FROM students
ORDER BY last_name COLLATE NOCASE, first_name COLLATE NOCASE, id
`

func (q *Queries) ListStudents(ctx context.Context) ([]Student, error) {
	rows, err := q.db.QueryContext(ctx, listStudents)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Student
	for rows.Next() {
		var i Student
		if err := rows.Scan(
			&i.ID,
			&i.FirstName,
			&i.LastName,
			&i.PreferredName,
			&i.PronounsSubject,
			&i.PronounsObject,
			&i.PronounsPossessive,
			&i.NeedsJson,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const findStudentByID = `
SELECT id, first_name, last_name, preferred_name, pronouns_subject, pronouns_object, pronouns_possessive, needs_json, created_at, updated_at
FROM students
WHERE id = ?
`

func (q *Queries) FindStudentByID(ctx context.Context, id string) (Student, error) {
	row := q.db.QueryRowContext(ctx, findStudentByID, id)
	var i Student
	err := row.Scan(
		&i.ID,
		&i.FirstName,
		&i.LastName,
		&i.PreferredName,
		&i.PronounsSubject,
		&i.PronounsObject,
		&i.PronounsPossessive,
		&i.NeedsJson,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertStudent = `
INSERT INTO students (
  id, first_name, last_name, preferred_name,
  pronouns_subject, pronouns_object, pronouns_possessive,
  needs_json, updated_at
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
ON CONFLICT(id) DO UPDATE SET
  first_name=excluded.first_name,
  last_name=excluded.last_name,
  preferred_name=excluded.preferred_name,
  pronouns_subject=excluded.pronouns_subject,
  pronouns_object=excluded.pronouns_object,
  pronouns_possessive=excluded.pronouns_possessive,
  needs_json=excluded.needs_json,
  updated_at=datetime('now')
`

type UpsertStudentParams struct {
	ID                 string
	FirstName          string
	LastName           string
	PreferredName      sql.NullString
	PronounsSubject    sql.NullString
	PronounsObject     sql.NullString
	PronounsPossessive sql.NullString
	NeedsJson          string
}

func (q *Queries) UpsertStudent(ctx context.Context, arg UpsertStudentParams) error {
	_, err := q.db.ExecContext(ctx, upsertStudent,
		arg.ID,
		arg.FirstName,
		arg.LastName,
		arg.PreferredName,
		arg.PronounsSubject,
		arg.PronounsObject,
		arg.PronounsPossessive,
		arg.NeedsJson,
	)
	return err
}

const deleteStudentByID = `
DELETE FROM students WHERE id = ?
`

func (q *Queries) DeleteStudentByID(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteStudentByID, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
