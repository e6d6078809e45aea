package handlers

import (
	"time"

	"github.com/sitewarden-dev/sitewarden/internal/alerts"
	"github.com/sitewarden-dev/sitewarden/internal/queue"
	"github.com/sitewarden-dev/sitewarden/internal/scheduler"
)

var (
	commandQueue *queue.Service
	alertService *alerts.Service
	checkRunner  *scheduler.Scheduler

	// Applied when an enqueue request does not set its own window.
	defaultDedupWindow = 5 * time.Minute
)

// Setup wires the handler package to its services. Called once from main
// before the router is mounted.
func Setup(q *queue.Service, a *alerts.Service, s *scheduler.Scheduler, dedupWindow time.Duration) {
	commandQueue = q
	alertService = a
	checkRunner = s
	if dedupWindow > 0 {
		defaultDedupWindow = dedupWindow
	}
}
