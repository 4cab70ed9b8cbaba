package services

// Rewriter propagates normalized names into every reference
type Rewriter struct{}

func NewRewriter() *Rewriter {
	return &Rewriter{}
}

// Run replaces every whole-identifier occurrence of an original name with its
// normalized name in every surviving file. It must only run on a complete
// Normalization. Applying it twice changes nothing the second time, since no
// normalized name is itself an original.
func (r *Rewriter) Run(ws *Workspace, norm *Normalization) int {
	aliases := norm.Aliases()
	if len(aliases) == 0 {
		return 0
	}

	rewritten := 0
	for _, sf := range ws.Files() {
		if sf.Loser {
			continue
		}
		if sf.File.RenameAll(aliases) {
			sf.Touch()
			rewritten++
		}
	}
	return rewritten
}
