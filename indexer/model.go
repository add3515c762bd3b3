package indexer

// sqlite models

type Height struct {
	Id     uint64 `gorm:"primary_key" json:"id"`
	Height uint64 `json:"height"`
}

type Validator struct {
	Id      uint64 `gorm:"primary_key" json:"id"`
	Address string `gorm:"index" json:"address"`
	Name    string `json:"name"`
	Stake   string `json:"stake"`
	Main    bool   `json:"main"`
}

type Proposal struct {
	Id              string `gorm:"primary_key" json:"id"`
	Proposer        string `gorm:"index" json:"proposer"`
	ProposerName    string `json:"proposer_name"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Type            uint64 `json:"type"`
	Value           string `json:"value"`
	StartHeight     uint64 `json:"start_height"`
	EndHeight       uint64 `json:"end_height"`
	Status          uint64 `json:"status"`
	SettleHeight    uint64 `json:"settle_height"`
	AgreeCount      uint64 `json:"agree_count"`
	DisagreeCount   uint64 `json:"disagree_count"`
	CreateTimestamp int64  `json:"create_timestamp"`
}

type ProposalVote struct {
	Id       uint64 `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Proposal string `gorm:"index" json:"proposal"`
	Voter    string `gorm:"index" json:"voter"`
	Vote     uint64 `json:"vote"`
	Amount   string `json:"amount"`
	Height   uint64 `json:"height"`
}

type NetworkChange struct {
	Id       uint64 `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Proposal string `json:"proposal"`
	Type     uint64 `json:"type"`
	Value    string `json:"value"`
	Height   uint64 `json:"height"`
}
