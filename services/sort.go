package services

import (
	"sort"

	"taskboard/apperror"
	"taskboard/model"
)

type SortOrder string

const (
	SortNewest   SortOrder = "newest"
	SortOldest   SortOrder = "oldest"
	SortPriority SortOrder = "priority"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case "", SortNewest:
		return SortNewest, nil
	case SortOldest, SortPriority:
		return SortOrder(s), nil
	default:
		return "", apperror.Validation("sort must be one of newest, oldest, priority")
	}
}

// SortTasks orders tasks in place. Ties fall back to creation time, newest first.
func SortTasks(tasks []model.Task, order SortOrder) {
	newer := func(a, b model.Task) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	}

	var less func(a, b model.Task) bool
	switch order {
	case SortOldest:
		less = func(a, b model.Task) bool { return newer(b, a) }
	case SortPriority:
		less = func(a, b model.Task) bool {
			if a.Priority != b.Priority {
				return a.Priority > b.Priority
			}
			return newer(a, b)
		}
	default:
		less = newer
	}
	sort.SliceStable(tasks, func(i, j int) bool { return less(tasks[i], tasks[j]) })
}
