//go:build linux

package control

// rtldNoLoad is glibc's RTLD_NOLOAD flag, not exported by purego.
const rtldNoLoad = 0x00004
