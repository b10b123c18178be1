package engine

import "sync"

// CommandQueue is a multi-producer single-consumer FIFO of scheduler commands
// Producers are callbacks on any worker or external goroutines; the App drains once per frame.
// Unlike a ring buffer it never overwrites: every request gets a result
type CommandQueue struct {
	mu      sync.Mutex
	pending []Command
	nextSeq uint64
}

// NewCommandQueue creates an empty queue
func NewCommandQueue() *CommandQueue {
	return &CommandQueue{pending: make([]Command, 0, 8)}
}

// Push appends cmd, stamps its sequence number and returns it
func (q *CommandQueue) Push(cmd Command) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextSeq++
	cmd.Seq = q.nextSeq
	q.pending = append(q.pending, cmd)
	return cmd.Seq
}

// Drain returns all pending commands in FIFO order and empties the queue
func (q *CommandQueue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	out := q.pending
	q.pending = make([]Command, 0, cap(out))
	return out
}

// Len returns the number of pending commands
func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
