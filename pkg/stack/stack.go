package stack

type Stack[T any] struct {
	a []T
}

// New creates a new stack holding elm, bottom first
func New[T any](elm ...T) *Stack[T] {
	return &Stack[T]{a: append(make([]T, 0, len(elm)), elm...)}
}

// Push adds an element to the top of the stack
func (s *Stack[T]) Push(elm T) {
	s.a = append(s.a, elm)
}

// Pop removes and returns the top element of the stack
func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	if len(s.a) == 0 {
		return zero, false
	}

	elm := s.a[len(s.a)-1]
	s.a[len(s.a)-1] = zero
	s.a = s.a[:len(s.a)-1]

	return elm, true
}

// Peek returns the top element of the stack without removing it
func (s *Stack[T]) Peek() (T, bool) {
	if len(s.a) == 0 {
		var zero T
		return zero, false
	}

	return s.a[len(s.a)-1], true
}

// Size returns the number of elements on the stack
func (s *Stack[T]) Size() int {
	return len(s.a)
}

// Empty reports whether the stack holds no elements
func (s *Stack[T]) Empty() bool {
	return len(s.a) == 0
}

// Array returns a copy of the elements, bottom first
func (s *Stack[T]) Array() []T {
	return append([]T(nil), s.a...)
}
