package model

// DecodeError records an archived log that could not be turned into an activity.
type DecodeError struct {
	ChainID     uint64 `json:"chain_id"`
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	Contract    string `json:"contract,omitempty"`
	Address     string `json:"address"`
	Topic0      string `json:"topic0"`
	Error       string `json:"error"`
}

// NewDecodeError builds a DecodeError from the failing record.
func NewDecodeError(record LogRecord, err error) DecodeError {
	topic0 := ""
	if len(record.Topics) > 0 {
		topic0 = record.Topics[0]
	}
	return DecodeError{
		ChainID:     record.ChainID,
		BlockNumber: record.BlockNumber,
		TxHash:      record.TxHash,
		LogIndex:    record.LogIndex,
		Contract:    record.Contract,
		Address:     record.Address,
		Topic0:      topic0,
		Error:       err.Error(),
	}
}
