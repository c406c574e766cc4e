// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package co holds goroutine helpers.
package co

import "sync"

// Goes runs goroutines and waits for them.
type Goes struct {
	wg sync.WaitGroup
}

func (g *Goes) Go(f func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		f()
	}()
}

func (g *Goes) Wait() {
	g.wg.Wait()
}

// Done returns a channel closed once every goroutine started by Go has returned.
func (g *Goes) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.wg.Wait()
	}()
	return done
}

// Waiter gives the channel to wait on for the next broadcast.
type Waiter interface {
	C() <-chan struct{}
}

// Signal is a channel based broadcast point, usable in select statements.
type Signal struct {
	mu sync.Mutex
	ch chan struct{}
}

func (s *Signal) current() chan struct{} {
	if s.ch == nil {
		s.ch = make(chan struct{})
	}
	return s.ch
}

// Broadcast wakes every waiter.
func (s *Signal) Broadcast() {
	s.mu.Lock()
	defer s.mu.Unlock()

	close(s.current())
	s.ch = make(chan struct{})
}

// NewWaiter returns a waiter. Each C() call returns the channel of the broadcast following
// the previous one, so no broadcast is missed between two calls.
func (s *Signal) NewWaiter() Waiter {
	s.mu.Lock()
	ref := s.current()
	s.mu.Unlock()

	return waiterFunc(func() <-chan struct{} {
		ch := ref
		s.mu.Lock()
		ref = s.current()
		s.mu.Unlock()
		return ch
	})
}

type waiterFunc func() <-chan struct{}

func (w waiterFunc) C() <-chan struct{} { return w() }
