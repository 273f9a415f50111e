package app

import "github.com/olivoil/wherehouse/internal/task"

// TaskUpdateMsg is sent by the task manager when a worker wrote to the
// shared state or finished.
type TaskUpdateMsg struct {
	Kind task.Kind
}

// pendingAction is a mutation waiting for the user to confirm it.
type pendingAction struct {
	kind task.Kind
	verb string
	name string
}

// notice is a one-line message shown in place of the key help until the
// next key press.
type notice struct {
	text string
	err  bool
}
