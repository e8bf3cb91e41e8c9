package net

import (
	"github.com/sirupsen/logrus"
)

// Callback receives training progress notifications.
type Callback interface {
	OnTrainBegin(n *Network)
	OnTrainEnd(n *Network)
	OnEpochBegin(epoch int, n *Network)
	// OnEpochEnd receives the error accumulated over the finished epoch.
	OnEpochEnd(epoch int, err float64, n *Network)
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (c BaseCallback) OnTrainBegin(n *Network)                        {}
func (c BaseCallback) OnTrainEnd(n *Network)                          {}
func (c BaseCallback) OnEpochBegin(epoch int, n *Network)             {}
func (c BaseCallback) OnEpochEnd(epoch int, err float64, n *Network) {}

// Logger logs the epoch error every Interval epochs.
// A nil Log uses the network's own logger.
type Logger struct {
	BaseCallback
	Interval int
	Log      *logrus.Entry
}

func (c Logger) OnEpochEnd(epoch int, err float64, n *Network) {
	if c.Interval <= 0 || epoch%c.Interval != 0 {
		return
	}
	log := c.Log
	if log == nil {
		log = n.Logger()
	}
	log.WithFields(logrus.Fields{
		"epoch": epoch,
		"error": err,
	}).Info("epoch finished")
}

// History records the error of every epoch.
type History struct {
	BaseCallback
	Errors []float64
}

func (h *History) OnTrainBegin(n *Network) {
	h.Errors = h.Errors[:0]
}

func (h *History) OnEpochEnd(epoch int, err float64, n *Network) {
	h.Errors = append(h.Errors, err)
}
