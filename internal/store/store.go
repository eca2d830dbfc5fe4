// Package store persists answer templates and grading reports in
// SQLite.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/chen-albert-liang/grading-tool/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS templates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS questions (
		template_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		question_id TEXT NOT NULL,
		text TEXT NOT NULL DEFAULT '',
		expected_answer TEXT NOT NULL DEFAULT '',
		answer_type TEXT NOT NULL,
		max_points REAL NOT NULL,
		tolerance REAL NOT NULL DEFAULT 0,
		similarity_threshold REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (template_id, question_id),
		FOREIGN KEY (template_id) REFERENCES templates(id)
	);

	CREATE TABLE IF NOT EXISTS student_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		template_id INTEGER NOT NULL,
		student_id TEXT NOT NULL,
		total_score REAL NOT NULL DEFAULT 0,
		max_score REAL NOT NULL DEFAULT 0,
		accuracy REAL NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (template_id) REFERENCES templates(id)
	);

	CREATE TABLE IF NOT EXISTS question_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		report_id INTEGER NOT NULL,
		question_id TEXT NOT NULL,
		awarded_points REAL NOT NULL DEFAULT 0,
		max_points REAL NOT NULL DEFAULT 0,
		is_correct INTEGER NOT NULL DEFAULT 0,
		matched_value TEXT NOT NULL DEFAULT '',
		feedback TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (report_id) REFERENCES student_reports(id)
	);

	CREATE TABLE IF NOT EXISTS grading_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveTemplate stores a template and its questions in page order.
func (s *Store) SaveTemplate(name string, tpl *model.AnswerTemplate) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO templates (name, created_at) VALUES (?, ?)`,
		name, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	templateID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, q := range tpl.Questions() {
		_, err := tx.Exec(
			`INSERT INTO questions
			 (template_id, position, question_id, text, expected_answer, answer_type, max_points, tolerance, similarity_threshold)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			templateID, i, q.ID, q.Text, q.ExpectedAnswer, string(q.Type),
			q.MaxPoints, q.Tolerance, q.SimilarityThreshold,
		)
		if err != nil {
			return 0, err
		}
	}

	return templateID, tx.Commit()
}

// GetTemplate returns a stored template with questions in page order.
func (s *Store) GetTemplate(id int64) (*model.AnswerTemplate, error) {
	rows, err := s.db.Query(
		`SELECT question_id, text, expected_answer, answer_type, max_points, tolerance, similarity_threshold
		 FROM questions WHERE template_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		var typ string
		if err := rows.Scan(&q.ID, &q.Text, &q.ExpectedAnswer, &typ,
			&q.MaxPoints, &q.Tolerance, &q.SimilarityThreshold); err != nil {
			return nil, err
		}
		q.Type = model.AnswerType(typ)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("template %d: %w", id, sql.ErrNoRows)
	}
	return model.NewTemplate(questions)
}

// LatestTemplateID returns the most recently saved template id, or 0
// when none has been saved.
func (s *Store) LatestTemplateID() (int64, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM templates ORDER BY id DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return id, err
}

// SaveReport stores a student report and its question results.
// A student graded again against the same template replaces the
// previous report.
func (s *Store) SaveReport(templateID int64, r model.StudentReport) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// Drop any earlier report for this student.
	_, err = tx.Exec(
		`DELETE FROM question_results WHERE report_id IN
		 (SELECT id FROM student_reports WHERE template_id = ? AND student_id = ?)`,
		templateID, r.StudentID,
	)
	if err != nil {
		return 0, err
	}
	_, err = tx.Exec(
		`DELETE FROM student_reports WHERE template_id = ? AND student_id = ?`,
		templateID, r.StudentID,
	)
	if err != nil {
		return 0, err
	}

	res, err := tx.Exec(
		`INSERT INTO student_reports (template_id, student_id, total_score, max_score, accuracy, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		templateID, r.StudentID, r.TotalScore, r.MaxScore, r.OverallAccuracy, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	reportID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, qr := range r.Results {
		_, err := tx.Exec(
			`INSERT INTO question_results (report_id, question_id, awarded_points, max_points, is_correct, matched_value, feedback)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			reportID, qr.QuestionID, qr.AwardedPoints, qr.MaxPoints, qr.IsCorrect, qr.MatchedValue, qr.Feedback,
		)
		if err != nil {
			return 0, err
		}
	}

	return reportID, tx.Commit()
}

// ListReports returns all student reports for a template, each with its
// question results in insertion order.
func (s *Store) ListReports(templateID int64) ([]model.StudentReport, error) {
	rows, err := s.db.Query(
		`SELECT id, student_id, total_score, max_score, accuracy
		 FROM student_reports WHERE template_id = ? ORDER BY id`, templateID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type row struct {
		id     int64
		report model.StudentReport
	}
	var found []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.report.StudentID, &r.report.TotalScore,
			&r.report.MaxScore, &r.report.OverallAccuracy); err != nil {
			return nil, err
		}
		found = append(found, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var reports []model.StudentReport
	for _, r := range found {
		results, err := s.listResults(r.id)
		if err != nil {
			return nil, fmt.Errorf("results for report %d: %w", r.id, err)
		}
		r.report.Results = results
		reports = append(reports, r.report)
	}
	return reports, nil
}

func (s *Store) listResults(reportID int64) ([]model.QuestionResult, error) {
	rows, err := s.db.Query(
		`SELECT question_id, awarded_points, max_points, is_correct, matched_value, feedback
		 FROM question_results WHERE report_id = ? ORDER BY id`, reportID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.QuestionResult
	for rows.Next() {
		var qr model.QuestionResult
		if err := rows.Scan(&qr.QuestionID, &qr.AwardedPoints, &qr.MaxPoints,
			&qr.IsCorrect, &qr.MatchedValue, &qr.Feedback); err != nil {
			return nil, err
		}
		results = append(results, qr)
	}
	return results, rows.Err()
}

// ReportCount returns the number of stored student reports for a
// template.
func (s *Store) ReportCount(templateID int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM student_reports WHERE template_id = ?`, templateID,
	).Scan(&count)
	return count, err
}
