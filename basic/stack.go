package basic

const (
	STACK_LIMIT = 10 // Default call stack depth.
)

// Stack is a bounded stack of return addresses.
type Stack struct {
	Limit int // Maximum depth, STACK_LIMIT if zero.
	Data  []int
}

func (s *Stack) limit() int {
	if s.Limit > 0 {
		return s.Limit
	}
	return STACK_LIMIT
}

// Push a value, failing with ErrStackFull when the stack is full.
func (s *Stack) Push(value int) (err error) {
	if s.Full() {
		err = ErrStackFull
		return
	}

	s.Data = append(s.Data, value)
	return
}

func (s *Stack) Pop() (value int, ok bool) {
	value, ok = s.Peek()
	if ok {
		s.Data = s.Data[:len(s.Data)-1]
	}
	return
}

func (s *Stack) Empty() bool {
	return len(s.Data) == 0
}

func (s *Stack) Full() bool {
	return len(s.Data) >= s.limit()
}

func (s *Stack) Peek() (value int, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[len(s.Data)-1], true
}

func (s *Stack) Reset() {
	if len(s.Data) > 0 {
		s.Data = s.Data[:0]
	}
}
