package model

import "github.com/shopspring/decimal"

// PaymentProof 用户提交的链上支付凭证
type PaymentProof struct {
	TransactionHash string          `json:"transactionHash"`
	Amount          decimal.Decimal `json:"amount"`
	SenderAddress   string          `json:"senderAddress,omitempty"`
}

type PaymentVerification struct {
	Valid           bool   `json:"valid"`
	TransactionHash string `json:"transactionHash,omitempty"`
	Amount          string `json:"amount,omitempty"`
	To              string `json:"to,omitempty"`
	From            string `json:"from,omitempty"`
	Error           string `json:"error,omitempty"`
}

type BalanceInfo struct {
	Address  string `json:"address"`
	Free     string `json:"free"`
	Reserved string `json:"reserved"`
	Frozen   string `json:"frozen"`
	Total    string `json:"total"`
}

type FormattedBalance struct {
	Balance   string `json:"balance"`
	Formatted string `json:"formatted"`
}

type AccountInfo struct {
	Address     string      `json:"address"`
	Nonce       uint32      `json:"nonce"`
	Consumers   uint32      `json:"consumers"`
	Providers   uint32      `json:"providers"`
	Sufficients uint32      `json:"sufficients"`
	Data        BalanceInfo `json:"data"`
}
