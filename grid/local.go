// Copyright 2016 The Gopoisson Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grid

import (
	"sync"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// barrier is a cyclic barrier for the goroutine-backed group
type barrier struct {
	mu    sync.Mutex
	cond  *sync.Cond
	n     int
	count int
	phase int
}

func newBarrier(n int) (b *barrier) {
	b = &barrier{n: n}
	b.cond = sync.NewCond(&b.mu)
	return
}

func (o *barrier) wait() {
	o.mu.Lock()
	ph := o.phase
	o.count++
	if o.count == o.n {
		o.count = 0
		o.phase++
		o.cond.Broadcast()
	} else {
		for ph == o.phase {
			o.cond.Wait()
		}
	}
	o.mu.Unlock()
}

// localHub is the shared state of one LocalGroup family
type localHub struct {
	size  int
	bar   *barrier
	posts []interface{} // one slot per rank, written between barriers
	mu    sync.Mutex
	subs  map[string]*localHub
}

func newLocalHub(size int) *localHub {
	return &localHub{
		size:  size,
		bar:   newBarrier(size),
		posts: make([]interface{}, size),
		subs:  make(map[string]*localHub),
	}
}

// LocalGroup implements Group with one goroutine per rank inside a single
// process. All collectives synchronize through a cyclic barrier; the posts
// slots carry the per-rank contributions between two barrier crossings.
type LocalGroup struct {
	hub      *localHub
	rank     int
	splitSeq int
}

// NewLocalGroups creates the n handles of an in-process group. Each handle
// must be used by exactly one goroutine.
func NewLocalGroups(n int) (groups []Group) {
	if n < 1 {
		chk.Panic("number of local ranks must be at least 1. n=%d is invalid", n)
	}
	hub := newLocalHub(n)
	groups = make([]Group, n)
	for i := 0; i < n; i++ {
		groups[i] = &LocalGroup{hub: hub, rank: i}
	}
	return
}

// Rank returns the id of this process within the group
func (o *LocalGroup) Rank() int { return o.rank }

// Size returns the number of processes in the group
func (o *LocalGroup) Size() int { return o.hub.size }

// post publishes x in this rank's slot and synchronizes
func (o *LocalGroup) post(x interface{}) {
	o.hub.posts[o.rank] = x
	o.hub.bar.wait()
}

// done synchronizes after all ranks have read the posted slots
func (o *LocalGroup) done() {
	o.hub.bar.wait()
}

// AlltoallInts sends one int to every peer and collects one from each
func (o *LocalGroup) AlltoallInts(send []int) (recv []int) {
	if len(send) != o.hub.size {
		chk.Panic("AlltoallInts needs one value per rank. %d != %d", len(send), o.hub.size)
	}
	o.post(send)
	recv = make([]int, o.hub.size)
	for i := 0; i < o.hub.size; i++ {
		recv[i] = o.hub.posts[i].([]int)[o.rank]
	}
	o.done()
	return
}

type a2avPost struct {
	buf     []float64
	counts  []int
	displs  []int
}

// AlltoallV exchanges variable-size chunks with every peer
func (o *LocalGroup) AlltoallV(send []float64, scounts, sdispls []int, recv []float64, rcounts, rdispls []int) {
	o.post(&a2avPost{buf: send, counts: scounts, displs: sdispls})
	for src := 0; src < o.hub.size; src++ {
		p := o.hub.posts[src].(*a2avPost)
		n := p.counts[o.rank]
		if n != rcounts[src] {
			chk.Panic("AlltoallV count mismatch: rank %d sends %d to rank %d which expects %d", src, n, o.rank, rcounts[src])
		}
		copy(recv[rdispls[src]:rdispls[src]+n], p.buf[p.displs[o.rank]:p.displs[o.rank]+n])
	}
	o.done()
}

// Alltoall is the symmetric all-to-all exchange
func (o *LocalGroup) Alltoall(send []float64, count int, recv []float64) {
	o.post(send)
	for src := 0; src < o.hub.size; src++ {
		buf := o.hub.posts[src].([]float64)
		copy(recv[src*count:(src+1)*count], buf[o.rank*count:(o.rank+1)*count])
	}
	o.done()
}

// ExchangeParts delivers send[p] to peer p and receives each peer's payload
func (o *LocalGroup) ExchangeParts(send, recv [][]float64) {
	o.post(send)
	for p := 0; p < o.hub.size; p++ {
		part := o.hub.posts[p].([][]float64)[o.rank]
		if len(part) != len(recv[p]) {
			chk.Panic("ExchangeParts length mismatch: rank %d sends %d to rank %d which expects %d", p, len(part), o.rank, len(recv[p]))
		}
		copy(recv[p], part)
	}
	o.done()
}

// AllgatherInt gathers one int from every rank
func (o *LocalGroup) AllgatherInt(x int) (all []int) {
	o.post(x)
	all = make([]int, o.hub.size)
	for i := 0; i < o.hub.size; i++ {
		all[i] = o.hub.posts[i].(int)
	}
	o.done()
	return
}

// AllreduceSumInt returns the sum of x over the group
func (o *LocalGroup) AllreduceSumInt(x int) (sum int) {
	for _, v := range o.AllgatherInt(x) {
		sum += v
	}
	return
}

// AllreduceSum returns the sum of x over the group
func (o *LocalGroup) AllreduceSum(x float64) (sum float64) {
	o.post(x)
	for i := 0; i < o.hub.size; i++ {
		sum += o.hub.posts[i].(float64)
	}
	o.done()
	return
}

// AllreduceMax returns the maximum of x over the group
func (o *LocalGroup) AllreduceMax(x float64) (max float64) {
	o.post(x)
	max = o.hub.posts[0].(float64)
	for i := 1; i < o.hub.size; i++ {
		if v := o.hub.posts[i].(float64); v > max {
			max = v
		}
	}
	o.done()
	return
}

// Split partitions the group by color
func (o *LocalGroup) Split(color int) Group {
	colors := o.AllgatherInt(color)
	newRank := 0
	newSize := 0
	for i, c := range colors {
		if c == color {
			if i < o.rank {
				newRank++
			}
			newSize++
		}
	}
	key := io.Sf("%d:%d", o.splitSeq, color)
	o.splitSeq++
	o.hub.mu.Lock()
	sub := o.hub.subs[key]
	if sub == nil {
		sub = newLocalHub(newSize)
		o.hub.subs[key] = sub
	}
	o.hub.mu.Unlock()
	return &LocalGroup{hub: sub, rank: newRank}
}
