package control

import "github.com/jamesainslie/poolctl/pkg/poolctl/types"

// symbolSet names the get/set thread-count entry points of a backend kind.
type symbolSet struct {
	get string
	set string
}

// controlSymbols maps each backend kind to its control entry points.
// The three OpenMP families are ABI-similar here: all of them export the
// standard omp_* configuration calls, each backed by that runtime's own
// process-global counter.
var controlSymbols = map[types.Kind]symbolSet{
	types.KindOpenBLAS:    {get: "openblas_get_num_threads", set: "openblas_set_num_threads"},
	types.KindMKL:         {get: "MKL_Get_Max_Threads", set: "MKL_Set_Num_Threads"},
	types.KindOpenMPGNU:   {get: "omp_get_max_threads", set: "omp_set_num_threads"},
	types.KindOpenMPLLVM:  {get: "omp_get_max_threads", set: "omp_set_num_threads"},
	types.KindOpenMPIntel: {get: "omp_get_max_threads", set: "omp_set_num_threads"},
}

// Symbols returns the control entry-point names for a backend kind.
func Symbols(kind types.Kind) (get, set string, ok bool) {
	syms, ok := controlSymbols[kind]
	return syms.get, syms.set, ok
}
