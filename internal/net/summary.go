package net

import (
	"fmt"
	"io"
)

const summaryRule = "_________________________________________________________________"

// Summary writes a table of the network's layers and weight counts.
func (n *Network) Summary(w io.Writer) {
	fmt.Fprintf(w, "Model: %s", n.cfg.Family)
	if n.cfg.ID != "" {
		fmt.Fprintf(w, " (%s)", n.cfg.ID)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, summaryRule)
	fmt.Fprintf(w, "%-25s %-20s %-10s\n", "Layer (type)", "Units", "Param #")
	fmt.Fprintln(w, "=================================================================")

	hiddenType := "Sigmoid"
	if n.cfg.Family == TDNN {
		hiddenType = fmt.Sprintf("Sigmoid (delays=%d)", n.cfg.Delays)
	}
	rows := []struct {
		name   string
		units  int
		params int
	}{
		{"input", len(n.inputs), 0},
		{"hidden_" + hiddenType, len(n.hidden), len(n.inputs)*len(n.hidden) + len(n.hidden)},
		{"output_Sigmoid", 1, len(n.hidden) + 1},
	}
	if n.context != nil {
		rows = append(rows, struct {
			name   string
			units  int
			params int
		}{fmt.Sprintf("context (depth=%g)", n.cfg.MemoryDepth), len(n.context), 0})
	}

	total := 0
	for _, r := range rows {
		total += r.params
		fmt.Fprintf(w, "%-25s %-20d %-10d\n", r.name, r.units, r.params)
	}
	fmt.Fprintln(w, "=================================================================")
	fmt.Fprintf(w, "Trainable params: %d\n", total)
	if n.context != nil {
		fmt.Fprintf(w, "Fixed params: %d\n", 2*len(n.context))
	}
	fmt.Fprintln(w, summaryRule)
}
