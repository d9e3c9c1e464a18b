package spu

import "github.com/cellforge/cellcore/memory"

// rdch/wrch/rchcnt (spec.md §4.5). A blocking channel access that cannot
// complete returns a WouldBlock* outcome without advancing PC; the runner
// retries the exact same instruction once the channel becomes ready.

func opRdch(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	channel := sChannel(w)
	rt := sRT(w)
	v, ok, err := t.Chans.Read(channel)
	if err != nil {
		return StepOutcome{}, err
	}
	if !ok {
		return StepOutcome{Kind: WouldBlockRead, Channel: channel, Target: rt}, nil
	}
	t.Regs.GPR[rt] = PreferredQuad(v)
	t.advance()
	return StepOutcome{}, nil
}

func opWrch(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	channel := sChannel(w)
	v := t.Regs.GPR[sRT(w)].Preferred()
	ok, err := t.Chans.Write(channel, v)
	if err != nil {
		return StepOutcome{}, err
	}
	if !ok {
		return StepOutcome{Kind: WouldBlockWrite, Channel: channel, Value: v}, nil
	}
	t.advance()
	return StepOutcome{}, nil
}

func opRchcnt(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	channel := sChannel(w)
	n, err := t.Chans.Count(channel)
	if err != nil {
		return StepOutcome{}, err
	}
	t.Regs.GPR[sRT(w)] = PreferredQuad(uint32(n))
	t.advance()
	return StepOutcome{}, nil
}

// Retry re-attempts a blocked instruction after the runner has observed
// the stalled channel become ready. It is exactly opRdch/opWrch applied
// again; the caller is responsible for not calling Retry unless the
// condition that stalled the thread has actually changed.
func (t *Thread) Retry(m *memory.Space) (StepOutcome, error) {
	return t.Step(m)
}
