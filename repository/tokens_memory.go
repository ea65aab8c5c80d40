package repository

import "sync"

type TokenRepoMemory struct {
	mu     sync.RWMutex
	tokens map[string]string
}

func NewTokenRepoMemory() *TokenRepoMemory {
	return &TokenRepoMemory{tokens: map[string]string{}}
}

func (t *TokenRepoMemory) Get(key string) (string, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	token, ok := t.tokens[key]
	return token, ok, nil
}

func (t *TokenRepoMemory) Set(key, token string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tokens[key] = token
	return nil
}

func (t *TokenRepoMemory) Delete(key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.tokens, key)
	return nil
}
