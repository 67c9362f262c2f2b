package settlement

import "context"

// TransfersStub records submitted instructions for assertions in tests.
type TransfersStub struct {
	Instructions []Instruction
	Err          error
}

func NewTransfersStub() *TransfersStub {
	return &TransfersStub{}
}

func (s *TransfersStub) Submit(_ context.Context, instruction Instruction) error {
	if s.Err != nil {
		return s.Err
	}
	s.Instructions = append(s.Instructions, instruction)
	return nil
}

func (s *TransfersStub) Cleanup() {
	s.Instructions = nil
	s.Err = nil
}
