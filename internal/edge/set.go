package edge

import "fmt"

// Set is the full bipartite fan-out between a producer layer of width From
// and a consumer layer of width To. It is created fresh for every layer
// transition and discarded after it.
type Set struct {
	from, to int
	edges    [][]*Edge // [producer][consumer]
}

// NewSet creates from*to unwritten edges.
func NewSet(from, to int) *Set {
	if from < 0 || to < 0 {
		panic(fmt.Sprintf("edge: negative set dimensions %dx%d", from, to))
	}
	edges := make([][]*Edge, from)
	for i := range edges {
		edges[i] = make([]*Edge, to)
		for j := range edges[i] {
			edges[i][j] = New(i, j)
		}
	}
	return &Set{from: from, to: to, edges: edges}
}

// From returns the producer width.
func (s *Set) From() int { return s.from }

// To returns the consumer width.
func (s *Set) To() int { return s.to }

// Len returns the number of edges in the set.
func (s *Set) Len() int { return s.from * s.to }

// At returns the edge from producer i to consumer j.
func (s *Set) At(i, j int) *Edge {
	return s.edges[i][j]
}

// Outbound returns every edge leaving producer i, ordered by consumer.
func (s *Set) Outbound(i int) []*Edge {
	return s.edges[i]
}

// Inbound returns every edge arriving at consumer j, ordered by producer.
func (s *Set) Inbound(j int) []*Edge {
	in := make([]*Edge, s.from)
	for i := range s.edges {
		in[i] = s.edges[i][j]
	}
	return in
}

// Abandon releases every consumer still waiting on an unwritten edge.
func (s *Set) Abandon() {
	for _, row := range s.edges {
		for _, e := range row {
			e.Abandon()
		}
	}
}

// Stats counts how many edges were written and consumed.
func (s *Set) Stats() (written, consumed int) {
	for _, row := range s.edges {
		for _, e := range row {
			if e.Written() {
				written++
			}
			if e.Consumed() {
				consumed++
			}
		}
	}
	return written, consumed
}
