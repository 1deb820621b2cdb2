package session

import (
	"fmt"
	"sync"

	"SyncWave/model"
)

// Observer 只读订阅者，收到的是快照副本。
// 回调在 Store 锁内按更新顺序执行，不能再调用 Store。
type Observer func(snapshot model.Session)

// UpdateFunc 基于当前状态计算下一个状态。changed 为 false 时不写入也不通知。
type UpdateFunc func(current model.Session) (next model.Session, changed bool, err error)

// Store 工作流状态的唯一持有者，本身不含业务逻辑
type Store struct {
	mu        sync.Mutex
	state     model.Session
	observers map[uint64]Observer
	nextID    uint64
}

// NewStore 创建空会话
func NewStore() *Store {
	return &Store{observers: make(map[uint64]Observer)}
}

// Get 返回当前状态的快照
func (s *Store) Get() model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Set 直接替换整个状态
func (s *Store) Set(next model.Session) error {
	_, err := s.Update(func(model.Session) (model.Session, bool, error) {
		return next, true, nil
	})
	return err
}

// Update 在锁内读取、计算并写入，保证读改写的原子性
func (s *Store) Update(fn UpdateFunc) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed, err := fn(s.state.Clone())
	if err != nil {
		return s.state.Clone(), err
	}
	if !changed {
		return s.state.Clone(), nil
	}
	if err := s.commitLocked(next); err != nil {
		return s.state.Clone(), err
	}
	return s.state.Clone(), nil
}

// Subscribe 注册订阅者，返回取消函数
func (s *Store) Subscribe(obs Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.observers[id] = obs
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Store) commitLocked(next model.Session) error {
	if err := next.Validate(); err != nil {
		return fmt.Errorf("rejected session update: %w", err)
	}
	s.state = next.Clone()
	for _, obs := range s.observers {
		obs(s.state.Clone())
	}
	return nil
}
