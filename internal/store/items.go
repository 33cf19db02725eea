package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Task is a to-do item created by voice.
type Task struct {
	ID          int64
	Description string
	DueDate     *time.Time
	Priority    int
	Completed   bool
	CreatedAt   time.Time
}

// Reminder is a one-shot notification scheduled for a point in time.
type Reminder struct {
	ID          int64
	Description string
	RemindAt    time.Time
	Fired       bool
	CreatedAt   time.Time
}

// Timer is a running countdown.
type Timer struct {
	ID              int64
	Name            string
	DurationSeconds int
	StartedAt       time.Time
}

// Note is a piece of free-form captured text.
type Note struct {
	ID        int64
	Content   string
	CreatedAt time.Time
}

// Goal is a longer-horizon objective, optionally with a target date.
type Goal struct {
	ID         int64
	Name       string
	TargetDate *time.Time
	CreatedAt  time.Time
}

// CreateTask persists a new task and returns it with its assigned ID.
func (s *Store) CreateTask(ctx context.Context, description string, dueDate *time.Time, priority int) (*Task, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (description, due_date, priority, completed, created_at)
		VALUES (?, ?, ?, 0, ?)
	`, description, dueDate, priority, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read task id: %w", err)
	}
	return &Task{ID: id, Description: description, DueDate: dueDate, Priority: priority, CreatedAt: now}, nil
}

// CreateReminder persists a new reminder.
func (s *Store) CreateReminder(ctx context.Context, description string, remindAt time.Time) (*Reminder, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reminders (description, remind_at, fired, created_at)
		VALUES (?, ?, 0, ?)
	`, description, remindAt, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read reminder id: %w", err)
	}
	return &Reminder{ID: id, Description: description, RemindAt: remindAt, CreatedAt: now}, nil
}

// CreateTimer records a countdown started now.
func (s *Store) CreateTimer(ctx context.Context, name string, durationSeconds int) (*Timer, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO timers (name, duration_seconds, started_at)
		VALUES (?, ?, ?)
	`, name, durationSeconds, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create timer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read timer id: %w", err)
	}
	return &Timer{ID: id, Name: name, DurationSeconds: durationSeconds, StartedAt: now}, nil
}

// CreateNote persists a new note.
func (s *Store) CreateNote(ctx context.Context, content string) (*Note, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (content, created_at) VALUES (?, ?)
	`, content, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read note id: %w", err)
	}
	return &Note{ID: id, Content: content, CreatedAt: now}, nil
}

// CreateGoal persists a new goal.
func (s *Store) CreateGoal(ctx context.Context, name string, targetDate *time.Time) (*Goal, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (name, target_date, created_at) VALUES (?, ?, ?)
	`, name, targetDate, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read goal id: %w", err)
	}
	return &Goal{ID: id, Name: name, TargetDate: targetDate, CreatedAt: now}, nil
}

// RecentTasks returns the most recently created open tasks, newest first.
func (s *Store) RecentTasks(ctx context.Context, limit int) ([]*Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, due_date, priority, completed, created_at
		FROM tasks
		WHERE completed = 0
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		t := &Task{}
		var due sql.NullTime
		if err := rows.Scan(&t.ID, &t.Description, &due, &t.Priority, &t.Completed, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if due.Valid {
			d := due.Time
			t.DueDate = &d
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// PendingReminders returns reminders that have not fired yet, soonest first.
func (s *Store) PendingReminders(ctx context.Context, limit int) ([]*Reminder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, remind_at, fired, created_at
		FROM reminders
		WHERE fired = 0
		ORDER BY remind_at ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*Reminder
	for rows.Next() {
		r := &Reminder{}
		if err := rows.Scan(&r.ID, &r.Description, &r.RemindAt, &r.Fired, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// RunningTimers returns timers whose countdown has not elapsed as of now.
func (s *Store) RunningTimers(ctx context.Context, now time.Time) ([]*Timer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, duration_seconds, started_at
		FROM timers
		ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list timers: %w", err)
	}
	defer rows.Close()

	var timers []*Timer
	for rows.Next() {
		t := &Timer{}
		if err := rows.Scan(&t.ID, &t.Name, &t.DurationSeconds, &t.StartedAt); err != nil {
			return nil, fmt.Errorf("failed to scan timer: %w", err)
		}
		if t.StartedAt.Add(time.Duration(t.DurationSeconds) * time.Second).After(now) {
			timers = append(timers, t)
		}
	}
	return timers, rows.Err()
}

// RecentNotes returns the most recently captured notes, newest first.
func (s *Store) RecentNotes(ctx context.Context, limit int) ([]*Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, created_at
		FROM notes
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		n := &Note{}
		if err := rows.Scan(&n.ID, &n.Content, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// ActiveGoals returns all goals, newest first.
func (s *Store) ActiveGoals(ctx context.Context, limit int) ([]*Goal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, target_date, created_at
		FROM goals
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	var goals []*Goal
	for rows.Next() {
		g := &Goal{}
		var target sql.NullTime
		if err := rows.Scan(&g.ID, &g.Name, &target, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		if target.Valid {
			d := target.Time
			g.TargetDate = &d
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}
