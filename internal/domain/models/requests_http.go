package models

// Requests for the advisory HTTP endpoints. Defined in domain for consistency and reuse.

type ConditionRequest struct {
	Symbol      string `query:"symbol" json:"symbol"`
	HorizonDays int    `query:"horizon" json:"horizon" default:"30" validate:"gte=1,lte=365"`
}

type AllocationRequest struct {
	Risk      string  `query:"risk" json:"risk" validate:"required"`
	Condition string  `query:"condition" json:"condition"`
	Symbol    string  `query:"symbol" json:"symbol"`
	Amount    string  `query:"amount" json:"amount"`
}

type AdviceRequest struct {
	ProfileID string `query:"profile_id" json:"profile_id" validate:"required,uuid"`
	Amount    string `query:"amount" json:"amount"`
}

type QuoteRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type HistoryRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=10000"`
}

type ProfileRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
	Risk string `json:"risk" validate:"required,oneof=conservative moderate aggressive"`
}

type GoalRequest struct {
	Name          string `json:"name" validate:"required,min=1,max=120"`
	TargetAmount  string `json:"target_amount" validate:"required"`
	CurrentAmount string `json:"current_amount" default:"0"`
	TargetDate    string `json:"target_date"`
}
