// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"errors"
	"sync"

	"github.com/Thermoquad/turtlelink/pkg/kobuki"
)

// ErrNoFeedback is returned by Drain when the queue is empty
var ErrNoFeedback = errors.New("no feedback available")

// FeedbackQueue is the ordered buffer between the serial worker and the host
type FeedbackQueue struct {
	mu    sync.Mutex
	items []*kobuki.Feedback
}

// NewFeedbackQueue creates an empty queue
func NewFeedbackQueue() *FeedbackQueue {
	return &FeedbackQueue{}
}

// Push appends feedbacks in order and returns the new length
func (q *FeedbackQueue) Push(feedbacks ...*kobuki.Feedback) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, feedbacks...)
	return len(q.items)
}

// Drain removes and returns every queued feedback in arrival order
func (q *FeedbackQueue) Drain() ([]*kobuki.Feedback, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, ErrNoFeedback
	}
	items := q.items
	q.items = nil
	return items, nil
}

// Len returns the number of queued feedbacks
func (q *FeedbackQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
