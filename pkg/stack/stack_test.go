package stack_test

import (
	"testing"

	"tacvm/pkg/stack"
)

func TestPushPopOrder(t *testing.T) {
	s := stack.New(1, 2)
	s.Push(3)

	if s.Size() != 3 {
		t.Fatalf("expected size 3, got %d", s.Size())
	}

	for _, expected := range []int{3, 2, 1} {
		got, ok := s.Pop()
		if !ok || got != expected {
			t.Errorf("expected %d, got %d (%v)", expected, got, ok)
		}
	}

	if _, ok := s.Pop(); ok {
		t.Error("pop on empty stack should report false")
	}
	if !s.Empty() {
		t.Error("stack should be empty")
	}
}

func TestPeekAndArray(t *testing.T) {
	s := stack.New[string]()
	if _, ok := s.Peek(); ok {
		t.Error("peek on empty stack should report false")
	}

	s.Push("main")
	s.Push("f")
	if top, _ := s.Peek(); top != "f" {
		t.Errorf("expected f on top, got %s", top)
	}

	arr := s.Array()
	arr[0] = "changed"
	if got := s.Array()[0]; got != "main" {
		t.Errorf("Array must return a copy, bottom element is now %q", got)
	}

	for !s.Empty() {
		s.Pop()
	}
	if _, ok := s.Pop(); ok {
		t.Errorf("pop on an empty stack must report false")
	}
}
