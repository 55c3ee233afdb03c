// Copyright 2016 The Gopoisson Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package grid implements distributed pencil topologies and the process
// groups they live on
package grid

// Group is the handle to a set of processes exchanging pencil data.
// Two implementations exist: LocalGroup runs every "process" as a goroutine
// inside one OS process (tests, single-process runs) and MpiGroup delegates
// to gosl/mpi for real distributed runs.
//
// All methods are collective unless stated otherwise: every member of the
// group must call them in the same order with compatible arguments.
type Group interface {

	// Rank returns the id of this process within the group
	Rank() int

	// Size returns the number of processes in the group
	Size() int

	// Split partitions the group by color and returns the subgroup this
	// process belongs to. Ranks in the subgroup follow the parent ordering.
	Split(color int) Group

	// AlltoallInts sends one int to every peer (send[i] goes to rank i) and
	// returns the ints received from every peer
	AlltoallInts(send []int) (recv []int)

	// AlltoallV exchanges variable-size chunks of send with every peer.
	// scounts/sdispls and rcounts/rdispls are in elements (float64)
	AlltoallV(send []float64, scounts, sdispls []int, recv []float64, rcounts, rdispls []int)

	// Alltoall is the symmetric variant: count elements to and from each peer
	Alltoall(send []float64, count int, recv []float64)

	// ExchangeParts delivers send[p] to peer p and fills recv[p] with the
	// payload peer p sent to this rank. Entries may be empty. recv slices
	// must be pre-sized to the expected lengths.
	ExchangeParts(send, recv [][]float64)

	// AllgatherInt gathers one int from every rank
	AllgatherInt(x int) []int

	// AllreduceSumInt returns the sum of x over the group
	AllreduceSumInt(x int) int

	// AllreduceSum returns the sum of x over the group
	AllreduceSum(x float64) float64

	// AllreduceMax returns the maximum of x over the group
	AllreduceMax(x float64) float64
}
