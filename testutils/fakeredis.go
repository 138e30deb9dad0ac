// Package testutils holds fakes shared by package tests.
package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/pkg/errors"
)

// Reply is the canned answer to one command line.
type Reply struct {
	Value interface{}
	Err   error
	Delay time.Duration
}

// FakeConn implements redis.Conn by looking up "CMD arg1 arg2" in Replies.
// Unknown command lines answer with an ERR reply, like a real server would.
type FakeConn struct {
	Replies map[string]Reply

	mu     sync.Mutex
	calls  []string
	closed bool
}

func NewFakeConn() *FakeConn {
	return &FakeConn{Replies: make(map[string]Reply)}
}

func CommandKey(cmd string, args ...interface{}) string {
	parts := []string{cmd}
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, " ")
}

func (c *FakeConn) On(line string, value interface{}) *FakeConn {
	c.Replies[line] = Reply{Value: value}
	return c
}

func (c *FakeConn) OnError(line string, err error) *FakeConn {
	c.Replies[line] = Reply{Err: err}
	return c
}

func (c *FakeConn) OnSlow(line string, value interface{}, delay time.Duration) *FakeConn {
	c.Replies[line] = Reply{Value: value, Delay: delay}
	return c
}

func (c *FakeConn) Do(cmd string, args ...interface{}) (interface{}, error) {
	key := CommandKey(cmd, args...)
	c.mu.Lock()
	c.calls = append(c.calls, key)
	closed := c.closed
	r, ok := c.Replies[key]
	c.mu.Unlock()
	if closed {
		return nil, errors.New("use of closed connection")
	}
	if !ok {
		return nil, redis.Error(fmt.Sprintf("ERR unknown command '%s'", key))
	}
	if r.Delay > 0 {
		time.Sleep(r.Delay)
	}
	return r.Value, r.Err
}

func (c *FakeConn) Send(cmd string, args ...interface{}) error {
	return errors.New("fake conn does not pipeline")
}

func (c *FakeConn) Flush() error {
	return nil
}

func (c *FakeConn) Receive() (interface{}, error) {
	return nil, errors.New("fake conn does not pipeline")
}

func (c *FakeConn) Err() error {
	return nil
}

func (c *FakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *FakeConn) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *FakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// FakeDialer hands out FakeConns by address. Addresses without a conn fail
// like a refused connection; addresses in Hang block until the context ends.
type FakeDialer struct {
	mu    sync.Mutex
	Conns map[string]*FakeConn
	Hang  map[string]bool
	dials map[string]int
}

func NewFakeDialer() *FakeDialer {
	return &FakeDialer{
		Conns: make(map[string]*FakeConn),
		Hang:  make(map[string]bool),
		dials: make(map[string]int),
	}
}

func (d *FakeDialer) Add(addr string) *FakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := NewFakeConn()
	d.Conns[addr] = c
	return c
}

func (d *FakeDialer) Dial(ctx context.Context, addr, password string, timeout time.Duration) (redis.Conn, error) {
	d.mu.Lock()
	d.dials[addr]++
	c, ok := d.Conns[addr]
	hang := d.Hang[addr]
	d.mu.Unlock()
	if hang {
		<-ctx.Done()
		return nil, errors.Wrapf(ctx.Err(), "dial %s", addr)
	}
	if !ok {
		return nil, errors.Errorf("dial tcp %s: connect: connection refused", addr)
	}
	return c, nil
}

func (d *FakeDialer) Dials(addr string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials[addr]
}

// Bulk encodes strings the way redigo returns bulk replies.
func Bulk(s string) []byte {
	return []byte(s)
}

// FlatMap builds the flat key/value array sentinel uses for instance details.
func FlatMap(kv ...string) []interface{} {
	out := make([]interface{}, 0, len(kv))
	for _, s := range kv {
		out = append(out, []byte(s))
	}
	return out
}

func Array(items ...interface{}) []interface{} {
	return items
}
