package net

// strategy holds the hooks that distinguish the architectures.
// The orchestrator in net.go drives the same step for all of them.
type strategy struct {
	// frame loads the next window into the input layer and sets the target.
	frame func(n *Network)
	// hiddenOutput activates the hidden layer after its inputs were transferred.
	hiddenOutput func(n *Network)
	// hiddenError computes the hidden error terms from the output error term.
	hiddenError func(n *Network)
	// outputDeltas and hiddenDeltas compute the pending weight changes.
	outputDeltas func(n *Network)
	hiddenDeltas func(n *Network)
	// toHidden and toOutput run after the ordinary transfers, if set.
	toHidden func(n *Network)
	toOutput func(n *Network)
}

func strategyFor(f Family) strategy {
	switch f {
	case TDNN:
		return tdnnStrategy
	case RNN:
		return rnnStrategy
	default:
		return mlpStrategy
	}
}

var mlpStrategy = strategy{
	frame:        func(n *Network) { n.loadWindow(false) },
	hiddenOutput: plainHiddenOutput,
	hiddenError:  plainHiddenError,
	outputDeltas: plainOutputDeltas,
	hiddenDeltas: plainHiddenDeltas,
}

var tdnnStrategy = strategy{
	frame:        func(n *Network) { n.loadWindow(true) },
	hiddenOutput: delayedHiddenOutput,
	hiddenError:  delayedHiddenError,
	outputDeltas: delayedOutputDeltas,
	hiddenDeltas: delayedHiddenDeltas,
}

var rnnStrategy = strategy{
	frame: func(n *Network) {
		n.loadWindow(false)
		for _, c := range n.context {
			n.units[c].Activate()
		}
	},
	hiddenOutput: plainHiddenOutput,
	hiddenError:  plainHiddenError,
	outputDeltas: plainOutputDeltas,
	hiddenDeltas: func(n *Network) {
		plainHiddenDeltas(n)
		for i := range n.contextToHidden {
			n.contextToHidden[i].ComputeDelta(n.units, n.rule, n.hiddenErrorTerms[i])
		}
	},
	toHidden: func(n *Network) {
		for i := range n.contextToHidden {
			n.contextToHidden[i].Transfer(n.units)
		}
	},
	toOutput: func(n *Network) {
		for i := range n.hiddenToContext {
			n.hiddenToContext[i].Transfer(n.units)
		}
	},
}

func plainHiddenOutput(n *Network) {
	for _, h := range n.hidden {
		n.units[h].Activate()
	}
}

func delayedHiddenOutput(n *Network) {
	for _, h := range n.hidden {
		n.units[h].ActivateDelayed()
	}
}

func plainHiddenError(n *Network) {
	for i, h := range n.hidden {
		unit := &n.units[h]
		n.hiddenErrorTerms[i] = unit.Derivative(unit.Output()) * n.outputErrorTerm * n.hiddenToOutput[i].Weight()
	}
}

// delayedHiddenError averages the error term over every raw activation
// still held in the unit's delay line.
func delayedHiddenError(n *Network) {
	delays := n.cfg.Delays
	for i, h := range n.hidden {
		unit := &n.units[h]
		w := n.hiddenToOutput[i].Weight()
		var sum float64
		for j := 0; j < delays; j++ {
			sum += unit.Derivative(unit.Tap(j)) * n.outputErrorTerm * w
		}
		n.hiddenErrorTerms[i] = sum / float64(delays)
	}
}

func plainOutputDeltas(n *Network) {
	for i := range n.hiddenToOutput {
		n.hiddenToOutput[i].ComputeDelta(n.units, n.rule, n.outputErrorTerm)
	}
	n.biasToOutput.ComputeDelta(n.units, n.rule, n.outputErrorTerm)
}

func delayedOutputDeltas(n *Network) {
	for i := range n.hiddenToOutput {
		n.hiddenToOutput[i].ComputeDelayedDelta(n.units, n.rule, n.outputErrorTerm, n.cfg.Delays)
	}
	n.biasToOutput.ComputeDelta(n.units, n.rule, n.outputErrorTerm)
}

func plainHiddenDeltas(n *Network) {
	for i := range n.inputToHidden {
		for j := range n.inputToHidden[i] {
			n.inputToHidden[i][j].ComputeDelta(n.units, n.rule, n.hiddenErrorTerms[j])
		}
	}
	for i := range n.biasToHidden {
		n.biasToHidden[i].ComputeDelta(n.units, n.rule, n.hiddenErrorTerms[i])
	}
}

func delayedHiddenDeltas(n *Network) {
	for i := range n.inputToHidden {
		for j := range n.inputToHidden[i] {
			n.inputToHidden[i][j].ComputeDelayedDelta(n.units, n.rule, n.hiddenErrorTerms[j], n.cfg.Delays)
		}
	}
	for i := range n.biasToHidden {
		n.biasToHidden[i].ComputeDelta(n.units, n.rule, n.hiddenErrorTerms[i])
	}
}
