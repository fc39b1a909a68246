package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to run maintenance over stored documents.
// Example usage:
//
//	scheduler := NewScheduler(configCache, repo, contentStore, metrics, workerCount, interval)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewBackfillOrderingTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// TaskObserver is notified after every task execution
type TaskObserver interface {
	TaskCompleted(taskType string, err error)
}
