package model

import "strconv"

// LogRecord is an archived game contract log, tagged with its source contract and
// classified activity type.
type LogRecord struct {
	ChainID     uint64       `json:"chain_id"`
	BlockNumber uint64       `json:"block_number"`
	BlockHash   string       `json:"block_hash"`
	TxHash      string       `json:"tx_hash"`
	TxIndex     uint64       `json:"tx_index"`
	LogIndex    uint64       `json:"log_index"`
	Contract    string       `json:"contract"`
	Address     string       `json:"address"`
	EventType   ActivityType `json:"event_type"`
	Topics      []string     `json:"topics"`
	Data        string       `json:"data"`
	Removed     bool         `json:"removed"`
	Timestamp   uint64       `json:"timestamp"`
	IngestedAt  string       `json:"ingested_at"`
}

// Key identifies the log within the chain.
func (lr LogRecord) Key() string {
	return strconv.FormatUint(lr.BlockNumber, 10) + ":" + lr.TxHash + ":" + strconv.FormatUint(lr.LogIndex, 10)
}
