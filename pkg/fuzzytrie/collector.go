package fuzzytrie

// Collector receives the matches of a search. Push returns true to stop the
// walk early.
type Collector[T any] interface {
	Push(distance uint8, value T) (stop bool)
}

// CollectorFunc adapts a function to Collector.
type CollectorFunc[T any] func(distance uint8, value T) bool

func (f CollectorFunc[T]) Push(distance uint8, value T) bool { return f(distance, value) }

// Match is a value found at some distance from the query.
type Match[T any] struct {
	Distance uint8
	Value    T
}

// Matches collects every match in walk order.
type Matches[T any] []Match[T]

func (m *Matches[T]) Push(distance uint8, value T) bool {
	*m = append(*m, Match[T]{Distance: distance, Value: value})
	return false
}

// Values returns the collected values, dropping distances.
func (m Matches[T]) Values() []T {
	out := make([]T, len(m))
	for i, x := range m {
		out[i] = x.Value
	}
	return out
}

// StopOnExact wraps a collector and ends the walk after the first exact match.
type StopOnExact[T any] struct {
	Next Collector[T]
}

func (s StopOnExact[T]) Push(distance uint8, value T) bool {
	if s.Next.Push(distance, value) {
		return true
	}
	return distance == 0
}
