package gemini

import (
	"fmt"
	"log/slog"
	"sync"
)

// GeminiClientSelector rotates requests across a set of clients (one per API
// key) and fails over to the remaining ones when a call errors.
type GeminiClientSelector struct {
	mu      sync.Mutex
	clients []GeminiClient
	next    int
}

func NewGeminiClientSelector(clients []GeminiClient) *GeminiClientSelector {
	return &GeminiClientSelector{clients: clients}
}

// GetNextClient hands out clients round-robin. Returns nil and -1 when the
// selector holds no clients at all.
func (s *GeminiClientSelector) GetNextClient() (*GeminiClient, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.clients) == 0 {
		return nil, -1
	}

	idx := s.next
	s.next = (s.next + 1) % len(s.clients)
	return &s.clients[idx], idx
}

func (s *GeminiClientSelector) GetClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// TryAllClients runs the operation against each client in rotation order until
// one succeeds. The returned error wraps the last failure.
func (s *GeminiClientSelector) TryAllClients(operation func(*GeminiClient, int) error) error {
	count := s.GetClientCount()
	if count == 0 {
		return fmt.Errorf("no Gemini clients available")
	}

	var lastErr error
	for attempt := 1; attempt <= count; attempt++ {
		client, idx := s.GetNextClient()

		err := operation(client, idx)
		if err == nil {
			return nil
		}
		lastErr = err

		slog.Warn("Gemini request failed, rotating to next client",
			"client_index", idx,
			"attempt", attempt,
			"total_clients", count,
			"error", err)
	}

	return fmt.Errorf("all %d Gemini clients failed: %w", count, lastErr)
}
