package classify

import (
	"regexp"

	"github.com/jamesainslie/poolctl/pkg/poolctl/types"
)

// filenameRule maps a library basename pattern to a backend kind.
type filenameRule struct {
	pattern *regexp.Regexp
	kind    types.Kind
}

// filenameRules is the ordered classification rule list. First match wins,
// so the more specific Intel prefix (libiomp5) is tried before the LLVM
// prefix (libomp). Patterns are applied to the lowercased basename.
var filenameRules = []filenameRule{
	{regexp.MustCompile(`^libopenblas`), types.KindOpenBLAS},
	{regexp.MustCompile(`^libmkl_rt`), types.KindMKL},
	{regexp.MustCompile(`^libgomp(\.|-)`), types.KindOpenMPGNU},
	{regexp.MustCompile(`^libiomp`), types.KindOpenMPIntel},
	{regexp.MustCompile(`^libomp(\.|-|[0-9])`), types.KindOpenMPLLVM},
}

// probeRule maps a backend-unique marker symbol to a kind.
type probeRule struct {
	symbol string
	kind   types.Kind
}

// probeRules is the ordered symbol-presence fallback, used only when no
// filename rule matches (renamed or bundled libraries). Intel's libiomp5
// exports the same __kmpc entry points as LLVM's libomp, so a probe hit on
// __kmpc_fork_call classifies as LLVM; the filename is the only reliable
// discriminator between the two and it already had its chance above.
var probeRules = []probeRule{
	{"openblas_get_config", types.KindOpenBLAS},
	{"MKL_Get_Max_Threads", types.KindMKL},
	{"GOMP_parallel", types.KindOpenMPGNU},
	{"__kmpc_fork_call", types.KindOpenMPLLVM},
}

// MatchFilename classifies a library basename against the filename rules.
// It reports false for names that match no known backend naming convention.
func MatchFilename(name string) (types.Kind, bool) {
	for _, rule := range filenameRules {
		if rule.pattern.MatchString(name) {
			return rule.kind, true
		}
	}
	return types.KindUnknown, false
}
