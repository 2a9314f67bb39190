package optimizer

import (
	"fmt"

	"github.com/anggasct/crossway/pkg/geometry"
)

// Observer receives progress notifications from the search
type Observer interface {
	// OnGeneration is called after each generation is scored
	OnGeneration(generation int, best, generationBest float64)

	// OnApplied is called once the best allocation was written back
	OnApplied(times map[geometry.Direction]int)
}

// ExtendedObserver also receives repair, report and error notifications
type ExtendedObserver interface {
	Observer

	// OnRepaired is called when the timing found on the intersection was
	// outside the constraints and had to be rebuilt
	OnRepaired(before, after map[geometry.Direction]int)

	// OnReport is called when the metrics window closes
	OnReport(report Report)

	// OnError is called for errors and for observer panics
	OnError(err error)
}

// BaseObserver provides no-op implementations of every observer method
type BaseObserver struct{}

func (o *BaseObserver) OnGeneration(generation int, best, generationBest float64) {}

func (o *BaseObserver) OnApplied(times map[geometry.Direction]int) {}

func (o *BaseObserver) OnRepaired(before, after map[geometry.Direction]int) {}

func (o *BaseObserver) OnReport(report Report) {}

func (o *BaseObserver) OnError(err error) {}

func (o *Optimizer) notify(name string, fn func(Observer)) {
	for _, obs := range o.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					o.notifyError(fmt.Errorf("observer panic in %s: %v", name, r))
				}
			}()
			fn(obs)
		}()
	}
}

func (o *Optimizer) notifyExtended(name string, fn func(ExtendedObserver)) {
	o.notify(name, func(obs Observer) {
		if ext, ok := obs.(ExtendedObserver); ok {
			fn(ext)
		}
	})
}

func (o *Optimizer) notifyError(err error) {
	for _, obs := range o.observers {
		if ext, ok := obs.(ExtendedObserver); ok {
			func() {
				defer func() { _ = recover() }()
				ext.OnError(err)
			}()
		}
	}
}
