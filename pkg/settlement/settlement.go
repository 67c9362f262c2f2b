package settlement

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Funds describes value attached to an incoming call, in a single denomination.
type Funds struct {
	Denom  string
	Amount int64
}

// Instruction is a single outbound value transfer handed to the settlement
// layer. The engine only emits instructions; execution (and any retry) happens
// downstream, asynchronously relative to the state commit that produced it.
type Instruction struct {
	Id        string
	Recipient string
	Amount    int64
	Denom     string
}

func NewInstruction(recipient string, amount int64, denom string) Instruction {
	return Instruction{
		Id:        uuid.NewString(),
		Recipient: recipient,
		Amount:    amount,
		Denom:     denom,
	}
}

// Transfers is the settlement collaborator contract: it accepts an instruction
// for execution and reports only whether the hand-off succeeded.
type Transfers interface {
	Submit(ctx context.Context, instruction Instruction) error
}

// LogTransfers accepts every instruction and logs it. It stands in for a real
// bank/transfer integration.
type LogTransfers struct{}

func (t LogTransfers) Submit(_ context.Context, instruction Instruction) error {
	log.Infof("settlement: transfer %s of %d %s to %s submitted",
		instruction.Id, instruction.Amount, instruction.Denom, instruction.Recipient)
	return nil
}
