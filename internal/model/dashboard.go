package model

import "time"

type DashboardRequest struct {
	Branch Branch    `json:"branch"`
	From   time.Time `json:"from" binding:"required"`
	To     time.Time `json:"to" binding:"required"`
}

type DashboardCounts struct {
	Appointments         int `json:"appointments"`
	Visited              int `json:"visited"`
	SurgeryConfirmations int `json:"surgeryConfirmations"`
	Surgeries            int `json:"surgeries"`
}

// CardFilter is the patient list query a metric card navigates to.
type CardFilter struct {
	Status Status     `json:"status,omitempty"`
	Branch Branch     `json:"branch,omitempty"`
	From   *time.Time `json:"from,omitempty"`
	To     *time.Time `json:"to,omitempty"`
}

type MetricCard struct {
	Key    string     `json:"key"`
	Title  string     `json:"title"`
	Value  float64    `json:"value"`
	Filter CardFilter `json:"filter"`
}

type Dashboard struct {
	Branch         Branch           `json:"branch,omitempty"`
	From           time.Time        `json:"from"`
	To             time.Time        `json:"to"`
	Counts         DashboardCounts  `json:"counts"`
	AmountReceived float64          `json:"amountReceived"`
	Last7Days      RevenueBreakdown `json:"last7Days"`
	Last30Days     RevenueBreakdown `json:"last30Days"`
	Cards          []MetricCard     `json:"cards"`
}
