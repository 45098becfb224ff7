//go:build unix

package mmap

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

func osMap(f *os.File, size int) ([]byte, error) {
	return unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
}

func osUnmap(data []byte) error {
	return unix.Munmap(data)
}

func osSequential(data []byte) error {
	// EINVAL only means the kernel rejected the hint.
	if err := unix.Madvise(data, unix.MADV_SEQUENTIAL); err != nil && !errors.Is(err, unix.EINVAL) {
		return err
	}
	return nil
}
