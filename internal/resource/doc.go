// Package resource enforces the limits shared by concurrent loads.
//
//   - Memory: fail-fast reservation of pipeline working memory
//   - Loads: a semaphore bounding concurrent loads
//   - IO: a token bucket throttling remote blob reads
//
// Memory is reserved before a load allocates its index buffers:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30,
//	})
//
//	if err := rc.AcquireMemory(need); err != nil {
//	    // ErrMemoryLimitExceeded
//	}
//	defer rc.ReleaseMemory(need)
//
// All methods handle a nil Controller as unlimited.
package resource
