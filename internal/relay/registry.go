package relay

import "sync"

// ChatRegistry records every chat that has interacted with the connector.
// It only serves broadcast fan-out; entries are kept for the process
// lifetime.
type ChatRegistry struct {
	mu    sync.Mutex
	chats map[string]struct{}
	order []string
}

func NewChatRegistry() *ChatRegistry {
	return &ChatRegistry{
		chats: make(map[string]struct{}),
	}
}

func (r *ChatRegistry) Add(chatID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.chats[chatID]; ok {
		return
	}
	r.chats[chatID] = struct{}{}
	r.order = append(r.order, chatID)
}

// List returns the known chat ids in first-seen order.
func (r *ChatRegistry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *ChatRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chats)
}
