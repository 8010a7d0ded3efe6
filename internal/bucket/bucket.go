// Package bucket derives the display bucket for a task from its persisted
// state and the current wall-clock time. Buckets are view-only: they are
// recomputed on every render pass and never written back to the store.
package bucket

import (
	"time"

	"github.com/taskdeck/taskdeck/internal/models"
)

// Bucket is a derived display classification of a task
type Bucket string

const (
	DueToday  Bucket = "dueToday"
	Pending   Bucket = "pending"
	Completed Bucket = "completed"
	Overdue   Bucket = "overdue"
)

// All lists the buckets in board display order.
var All = []Bucket{DueToday, Pending, Completed, Overdue}

// Classify maps a task and the current time to a bucket. It is pure and
// deterministic; identical inputs always yield identical output.
//
// Rules, evaluated in order:
//  1. completed status wins regardless of due date
//  2. due date before the start of now's calendar day is overdue
//  3. due date on the same calendar day as now is dueToday
//  4. everything else is pending
//
// "Same calendar day" compares year/month/day in now's location, not a
// duration threshold: a task due at 23:59 today is dueToday all day, and a
// due time earlier than now on the same day is dueToday, never overdue.
// Overdue requires crossing a day boundary.
func Classify(task models.Task, now time.Time) Bucket {
	if task.Status == models.TaskStatusCompleted {
		return Completed
	}

	due := task.DueDate.In(now.Location())
	if due.Before(StartOfDay(now)) {
		return Overdue
	}
	if SameDay(due, now) {
		return DueToday
	}
	return Pending
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date in b's
// location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// StatusFor maps a destination bucket to the status a drop into it persists.
// Only completed carries its own status; dueToday, pending and overdue are
// display artifacts of the due date and all map back to pending.
func StatusFor(b Bucket) models.TaskStatus {
	if b == Completed {
		return models.TaskStatusCompleted
	}
	return models.TaskStatusPending
}
