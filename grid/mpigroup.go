// Copyright 2016 The Gopoisson Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grid

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/mpi"
)

// MpiGroup implements Group on top of gosl/mpi. Point-to-point rounds
// replace the vector collectives: partners pair up with XOR rounds when the
// group size is a power of two and fall back to an ordered sweep otherwise,
// so no cycle of blocking sends can form.
type MpiGroup struct {
	comm       *mpi.Communicator
	worldRanks []int // members expressed as world ranks, group order
}

// NewMpiGroup returns the group over the world communicator.
// mpi.Start must have been called.
func NewMpiGroup() (o *MpiGroup) {
	o = new(MpiGroup)
	o.comm = mpi.NewCommunicator(nil)
	o.worldRanks = make([]int, o.comm.Size())
	for i := range o.worldRanks {
		o.worldRanks[i] = i
	}
	return
}

// NewMpiGroupRanks returns the group holding the given world ranks.
// Collective over the members.
func NewMpiGroupRanks(worldRanks []int) (o *MpiGroup) {
	o = new(MpiGroup)
	o.comm = mpi.NewCommunicator(worldRanks)
	o.worldRanks = worldRanks
	return
}

// Rank returns the id of this process within the group
func (o *MpiGroup) Rank() int { return o.comm.Rank() }

// Size returns the number of processes in the group
func (o *MpiGroup) Size() int { return o.comm.Size() }

// pairRounds returns the peer of this rank at each exchange round. A -1
// entry means the rank idles in that round.
func pairRounds(rank, size int) (peers []int) {
	if size&(size-1) == 0 { // power of two: XOR pairing, all pairs disjoint per round
		peers = make([]int, 0, size-1)
		for r := 1; r < size; r++ {
			peers = append(peers, rank^r)
		}
		return
	}
	// ordered sweep over all pairs (i,j), i<j
	for i := 0; i < size; i++ {
		for j := i + 1; j < size; j++ {
			if rank == i {
				peers = append(peers, j)
			} else if rank == j {
				peers = append(peers, i)
			} else {
				peers = append(peers, -1)
			}
		}
	}
	return
}

// ExchangeParts delivers send[p] to peer p and receives each peer's payload
func (o *MpiGroup) ExchangeParts(send, recv [][]float64) {
	rank, size := o.Rank(), o.Size()
	if len(recv[rank]) > 0 {
		copy(recv[rank], send[rank])
	}
	for _, p := range pairRounds(rank, size) {
		if p < 0 {
			continue
		}
		if rank < p {
			if len(send[p]) > 0 {
				o.comm.Send(send[p], p)
			}
			if len(recv[p]) > 0 {
				o.comm.Recv(recv[p], p)
			}
		} else {
			if len(recv[p]) > 0 {
				o.comm.Recv(recv[p], p)
			}
			if len(send[p]) > 0 {
				o.comm.Send(send[p], p)
			}
		}
	}
}

// AlltoallV exchanges variable-size chunks with every peer
func (o *MpiGroup) AlltoallV(send []float64, scounts, sdispls []int, recv []float64, rcounts, rdispls []int) {
	size := o.Size()
	sparts := make([][]float64, size)
	rparts := make([][]float64, size)
	for p := 0; p < size; p++ {
		sparts[p] = send[sdispls[p] : sdispls[p]+scounts[p]]
		rparts[p] = recv[rdispls[p] : rdispls[p]+rcounts[p]]
	}
	o.ExchangeParts(sparts, rparts)
}

// Alltoall is the symmetric all-to-all exchange
func (o *MpiGroup) Alltoall(send []float64, count int, recv []float64) {
	size := o.Size()
	counts := make([]int, size)
	displs := make([]int, size)
	for p := 0; p < size; p++ {
		counts[p] = count
		displs[p] = p * count
	}
	o.AlltoallV(send, counts, displs, recv, counts, displs)
}

// AllgatherInt gathers one int from every rank
func (o *MpiGroup) AllgatherInt(x int) (all []int) {
	size := o.Size()
	orig := make([]float64, size)
	dest := make([]float64, size)
	orig[o.Rank()] = float64(x)
	o.comm.AllReduceSum(dest, orig)
	all = make([]int, size)
	for i, v := range dest {
		all[i] = int(v)
	}
	return
}

// AlltoallInts sends one int to every peer and collects one from each
func (o *MpiGroup) AlltoallInts(send []int) (recv []int) {
	size := o.Size()
	if len(send) != size {
		chk.Panic("AlltoallInts needs one value per rank. %d != %d", len(send), size)
	}
	// gather the full matrix and pick this rank's column
	orig := make([]float64, size*size)
	dest := make([]float64, size*size)
	for p, v := range send {
		orig[o.Rank()*size+p] = float64(v)
	}
	o.comm.AllReduceSum(dest, orig)
	recv = make([]int, size)
	for i := 0; i < size; i++ {
		recv[i] = int(dest[i*size+o.Rank()])
	}
	return
}

// AllreduceSumInt returns the sum of x over the group
func (o *MpiGroup) AllreduceSumInt(x int) int {
	dest := make([]float64, 1)
	o.comm.AllReduceSum(dest, []float64{float64(x)})
	return int(dest[0])
}

// AllreduceSum returns the sum of x over the group
func (o *MpiGroup) AllreduceSum(x float64) float64 {
	dest := make([]float64, 1)
	o.comm.AllReduceSum(dest, []float64{x})
	return dest[0]
}

// AllreduceMax returns the maximum of x over the group
func (o *MpiGroup) AllreduceMax(x float64) float64 {
	dest := make([]float64, 1)
	o.comm.AllReduceMax(dest, []float64{x})
	return dest[0]
}

// Split partitions the group by color
func (o *MpiGroup) Split(color int) Group {
	colors := o.AllgatherInt(color)
	var members []int
	for r, c := range colors {
		if c == color {
			members = append(members, o.worldRanks[r])
		}
	}
	return NewMpiGroupRanks(members)
}
