// Copyright 2026 workturnedplay
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logq is a logger that never blocks its caller. Lines are queued
// on a buffered channel and written by a single worker goroutine; when the
// queue is full the line is dropped and counted.
package logq

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const attemptAtomicSwapThisManyTimes = 100

type entry struct {
	level zapcore.Level
	msg   string
	at    time.Time
}

// Logger queues lines for a zap sink.
type Logger struct {
	sink *zap.Logger
	ch   chan entry
	done chan struct{}

	// closing holds the write side while Close swaps the channel shut.
	closing sync.RWMutex
	closed  bool

	dropped atomic.Uint64
	peak    atomic.Uint64
}

// New starts the worker. size is the queue capacity.
func New(sink *zap.Logger, size int) *Logger {
	if size <= 0 {
		size = 1
	}
	l := &Logger{
		sink: sink,
		ch:   make(chan entry, size),
		done: make(chan struct{}),
	}
	go l.worker()
	return l
}

// Nop returns a logger that discards everything without a worker.
func Nop() *Logger {
	return &Logger{sink: zap.NewNop(), closed: true}
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(zapcore.DebugLevel, format, args...) }
func (l *Logger) Infof(format string, args ...any) { l.logf(zapcore.InfoLevel, format, args...) }
func (l *Logger) Warnf(format string, args ...any) { l.logf(zapcore.WarnLevel, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(zapcore.ErrorLevel, format, args...) }

func (l *Logger) logf(level zapcore.Level, format string, args ...any) {
	if l == nil || !l.sink.Core().Enabled(level) {
		return
	}
	l.closing.RLock()
	defer l.closing.RUnlock()
	if l.closed {
		return
	}

	l.notePeak(uint64(len(l.ch)))

	// select with default makes this non-blocking
	select {
	case l.ch <- entry{level: level, msg: fmt.Sprintf(format, args...), at: time.Now()}:
	default:
		l.dropped.Add(1)
	}
}

// notePeak raises the high water mark; a higher value stored concurrently
// is never overwritten.
func (l *Logger) notePeak(depth uint64) {
	for range attemptAtomicSwapThisManyTimes {
		old := l.peak.Load()
		if depth <= old || l.peak.CompareAndSwap(old, depth) {
			return
		}
	}
}

func (l *Logger) worker() {
	defer close(l.done)
	defer func() {
		if r := recover(); r != nil {
			l.sink.Error("log worker panicked", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
		}
	}()
	for e := range l.ch {
		l.sink.Log(e.level, e.msg, zap.Time("queued", e.at))
	}
}

// Dropped is the number of lines lost to a full queue.
func (l *Logger) Dropped() uint64 { return l.dropped.Load() }

// Peak is the deepest the queue has been.
func (l *Logger) Peak() uint64 { return l.peak.Load() }

// Close drains the queue, reports drops and peak depth to the sink and
// syncs it. Later log calls are discarded.
func (l *Logger) Close() error {
	l.closing.Lock()
	if l.closed {
		l.closing.Unlock()
		return nil
	}
	l.closed = true
	close(l.ch)
	l.closing.Unlock()
	<-l.done

	if drops := l.dropped.Load(); drops > 0 {
		l.sink.Warn("dropped log lines because the queue was full", zap.Uint64("dropped", drops), zap.Int("queue", cap(l.ch)))
	}
	if peak := l.peak.Load(); peak > 1 {
		l.sink.Debug("peak log queue depth", zap.Uint64("peak", peak), zap.Int("queue", cap(l.ch)))
	}
	return l.sink.Sync()
}
