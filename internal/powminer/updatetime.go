package powminer

import (
	"time"

	"github.com/btcsuite/btcd/wire"
)

// updateTime advances header.Timestamp to
// max(medianTimePast+1, adjustedNow), only ever moving it forward, and
// returns the delta applied (nNewTime - nOldTime); a negative delta signals
// the wall clock has regressed since assembly and the caller should restart
// its search against a fresh template. Mirrors UpdateTime (miner.cpp lines
// 47-63); the testnet nBits-on-retarget branch it disables upstream ("it's
// ugly") is likewise not reinstated here.
func updateTime(header *wire.BlockHeader, medianTimePast int64, adjustedNow time.Time) int64 {
	oldTime := header.Timestamp.Unix()
	newTime := medianTimePast + 1
	if adjustedNow.Unix() > newTime {
		newTime = adjustedNow.Unix()
	}
	if oldTime < newTime {
		header.Timestamp = time.Unix(newTime, 0)
	}
	return newTime - oldTime
}
