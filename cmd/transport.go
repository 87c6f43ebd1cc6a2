// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Felixrising

package cmd

import "sync"

// pumpTransport adapts a blocking Connection to the engine's non-blocking
// Transport: a reader goroutine feeds a buffered channel, ReadByte drains it
// without blocking. Writes pass straight through to the connection.
type pumpTransport struct {
	conn Connection
	ch   chan byte

	mu  sync.Mutex
	err error
}

func newPumpTransport(conn Connection) *pumpTransport {
	t := &pumpTransport{
		conn: conn,
		ch:   make(chan byte, 1024),
	}
	go t.readLoop()
	return t
}

func (t *pumpTransport) readLoop() {
	buf := make([]byte, 256)
	for {
		n, err := t.conn.Read(buf)
		for i := 0; i < n; i++ {
			t.ch <- buf[i]
		}
		if err != nil {
			t.mu.Lock()
			t.err = err
			t.mu.Unlock()
			close(t.ch)
			return
		}
	}
}

// ReadByte returns the next inbound byte if one is available right now.
func (t *pumpTransport) ReadByte() (byte, bool) {
	select {
	case b, ok := <-t.ch:
		if !ok {
			return 0, false
		}
		return b, true
	default:
		return 0, false
	}
}

func (t *pumpTransport) Write(p []byte) (int, error) {
	return t.conn.Write(p)
}

// Err reports a read-loop failure, if any.
func (t *pumpTransport) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}
