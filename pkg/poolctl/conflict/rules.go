package conflict

import (
	"github.com/jamesainslie/poolctl/pkg/poolctl/types"
)

// dualOpenMP fires when two or more distinct OpenMP kinds are loaded at
// once. Two images of the same kind never trigger it; same-family
// duplicates are DualBLAS territory only.
func dualOpenMP(reg *types.Registry, _ Environment) []types.Finding {
	var involved []*types.Backend
	kinds := make(map[types.Kind]bool)
	for _, b := range reg.Backends {
		if b.Kind.IsOpenMP() {
			involved = append(involved, b)
			kinds[b.Kind] = true
		}
	}
	if len(kinds) < 2 {
		return nil
	}
	return []types.Finding{{
		RuleID:   RuleDualOpenMP,
		Severity: types.SeverityWarning,
		Backends: involved,
		Hint:     "load a single OpenMP runtime; with MKL, set MKL_THREADING_LAYER=GNU to reuse the GNU runtime",
	}}
}

// intelLLVMClash fires when the Intel and LLVM OpenMP runtimes are loaded
// together. The two register the same internal state and crash or corrupt
// results when mixed.
func intelLLVMClash(reg *types.Registry, _ Environment) []types.Finding {
	intel := reg.ByKind(types.KindOpenMPIntel)
	llvm := reg.ByKind(types.KindOpenMPLLVM)
	if len(intel) == 0 || len(llvm) == 0 {
		return nil
	}
	involved := make([]*types.Backend, 0, len(intel)+len(llvm))
	for _, b := range reg.Backends {
		if b.Kind == types.KindOpenMPIntel || b.Kind == types.KindOpenMPLLVM {
			involved = append(involved, b)
		}
	}
	return []types.Finding{{
		RuleID:   RuleIntelLLVMClash,
		Severity: types.SeverityError,
		Backends: involved,
		Hint:     "rebuild against a single OpenMP runtime; KMP_DUPLICATE_LIB_OK=TRUE only hides the crash, it does not make the combination safe",
	}}
}

// forkUnsafeDeclared fires when the GNU OpenMP runtime is loaded and the
// caller has explicitly declared an impending fork. libgomp keeps worker
// state a forked child cannot reuse.
func forkUnsafeDeclared(reg *types.Registry, env Environment) []types.Finding {
	if !env.ForkDeclared {
		return nil
	}
	gnu := reg.ByKind(types.KindOpenMPGNU)
	if len(gnu) == 0 {
		return nil
	}
	return []types.Finding{{
		RuleID:   RuleForkUnsafeDeclared,
		Severity: types.SeverityWarning,
		Backends: gnu,
		Hint:     "avoid entering parallel regions before fork, or switch to a fork-tolerant runtime",
	}}
}

// dualBLAS fires when two or more distinct BLAS images are loaded,
// including two builds of the same library at different paths.
func dualBLAS(reg *types.Registry, _ Environment) []types.Finding {
	var involved []*types.Backend
	for _, b := range reg.Backends {
		if b.Kind.IsBLAS() {
			involved = append(involved, b)
		}
	}
	if len(involved) < 2 {
		return nil
	}
	return []types.Finding{{
		RuleID:   RuleDualBLAS,
		Severity: types.SeverityWarning,
		Backends: involved,
		Hint:     "each BLAS keeps its own thread pool; remove duplicate images to avoid oversubscription",
	}}
}
