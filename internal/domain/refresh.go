package domain

import "time"

// ChannelOpinions is the SignalBus channel carrying RefreshEvent payloads.
const ChannelOpinions = "opinions"

// RefreshEvent announces that indexed opinion data changed.
type RefreshEvent struct {
	OpinionIDs []uint64  `json:"opinionIds"`
	FromBlock  uint64    `json:"fromBlock"`
	ToBlock    uint64    `json:"toBlock"`
	At         time.Time `json:"at"`
}
