package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/hibiken/asynq"
)

// TaskMatchAndPersist is the per-file task the orchestrator dispatches for
// the parallelizable half of the pipeline (match + persist + auto-validate,
// spec §9 "cross-item parallelism... for steps ②/③").
const TaskMatchAndPersist = "workflow:match_persist"

// Queue wraps asynq's client/server/inspector trio the way the scan-time
// job queue does, scoped to the ingestion workflow's own task types.
type Queue struct {
	client    *asynq.Client
	server    *asynq.Server
	mux       *asynq.ServeMux
	inspector *asynq.Inspector
}

func NewQueue(redisAddr string, concurrency int) *Queue {
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}
	client := asynq.NewClient(redisOpt)
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	mux := asynq.NewServeMux()
	inspector := asynq.NewInspector(redisOpt)
	return &Queue{client: client, server: server, mux: mux, inspector: inspector}
}

// isTaskConflict reports whether err is asynq signaling a duplicate/in-flight
// task id, via errors.Is for sentinel values and a string fallback for
// versions that only return a formatted error.
func isTaskConflict(err error) bool {
	if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "task ID conflicts") || strings.Contains(msg, "duplicate task")
}

// EnqueueUnique enqueues payload under taskType with a deterministic task
// ID so the same file is never dispatched twice while a prior run is still
// pending or active. A lingering completed/archived task with the same ID
// is cleared first so a re-scan can re-dispatch it.
func (q *Queue) EnqueueUnique(taskType string, payload interface{}, uniqueID string, opts ...asynq.Option) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	opts = append(opts, asynq.TaskID(uniqueID))
	task := asynq.NewTask(taskType, data, opts...)
	info, err := q.client.Enqueue(task)
	if err == nil {
		return info.ID, nil
	}
	if !isTaskConflict(err) {
		return "", fmt.Errorf("enqueue: %w", err)
	}

	cleared := false
	for _, queueName := range []string{"default", "critical", "low"} {
		if delErr := q.inspector.DeleteTask(queueName, uniqueID); delErr == nil {
			log.Printf("workflow: cleared stale task %s from queue %s", uniqueID, queueName)
			cleared = true
			break
		}
	}
	if cleared {
		info, err = q.client.Enqueue(task)
		if err == nil {
			return info.ID, nil
		}
	}
	if isTaskConflict(err) {
		log.Printf("workflow: task %s already active, skipping", uniqueID)
		return uniqueID, nil
	}
	return "", fmt.Errorf("enqueue: %w", err)
}

func (q *Queue) RegisterHandler(taskType string, handler asynq.Handler) {
	q.mux.Handle(taskType, handler)
}

func (q *Queue) Run() error {
	log.Println("workflow: queue worker starting")
	return q.server.Run(q.mux)
}

func (q *Queue) Shutdown() {
	q.server.Shutdown()
	q.client.Close()
	q.inspector.Close()
}
