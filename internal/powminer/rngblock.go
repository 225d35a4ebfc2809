package powminer

import "github.com/sudo696/ring/internal/chainparams"

// rngBlockPlaceholder stands in for the burn-vote winner-selection block
// that MinerThread performs on RNG-spacing boundaries (miner.cpp lines
// 621-655). That code path reads and totals burn transactions but the
// winner it picks is never wired to anything else in the source it was
// read from — no later step consumes it. It is kept here, as a no-op, so
// a future burn-voting feature has the same call site to extend rather
// than needing to be threaded in from scratch.
func rngBlockPlaceholder(height int32, params *chainparams.Params) {
	_ = height
	_ = params
}
