package computer

import "runtime"

type Options struct {
	Workers  int      // Size of the worker pool. Defaults to the number of CPUs.
	Observer Observer // Receives progress notifications. Defaults to none.
}

type Option func(*Options)

func WithWorkers(workers int) Option {
	return func(o *Options) {
		o.Workers = workers
	}
}

func WithObserver(observer Observer) Option {
	return func(o *Options) {
		o.Observer = observer
	}
}

func buildOptions(opts []Option) Options {
	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	return o
}
