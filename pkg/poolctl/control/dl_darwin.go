//go:build darwin

package control

// rtldNoLoad is the macOS dyld RTLD_NOLOAD flag, not exported by purego.
const rtldNoLoad = 0x10
