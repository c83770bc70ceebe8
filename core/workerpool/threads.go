package workerpool

import "runtime"

// ResolveThreadCount maps a configured worker count onto the available CPUs.
//
//	0          -> all available CPUs
//	negative   -> available minus |n|, at least 1
//	> available -> clamped to available
func ResolveThreadCount(configured, available int) int {
	if available < 1 {
		available = 1
	}
	switch {
	case configured == 0:
		return available
	case configured < 0:
		return max(available+configured, 1)
	case configured > available:
		return available
	}
	return configured
}

// Threads resolves the configured worker count against runtime.NumCPU.
func Threads(configured int) int {
	return ResolveThreadCount(configured, runtime.NumCPU())
}
