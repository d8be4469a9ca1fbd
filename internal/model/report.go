package model

// AgentStat is one agent's referral performance.
type AgentStat struct {
	Agent          string         `json:"agent"`
	Name           string         `json:"name"`
	TotalPatients  int            `json:"totalPatients"`
	TotalRevenue   float64        `json:"totalRevenue"`
	AverageRevenue float64        `json:"averageRevenue"`
	Techniques     map[string]int `json:"techniques"`
}

// CounsellorStat is one counsellor's conversion performance.
type CounsellorStat struct {
	Counsellor        string  `json:"counsellor"`
	Name              string  `json:"name"`
	TotalPatients     int     `json:"totalPatients"`
	ConvertedPatients int     `json:"convertedPatients"`
	ConversionRate    float64 `json:"conversionRate"`
	TotalRevenue      float64 `json:"totalRevenue"`
}

// SurgeonStat is the performance of an implanter or senior technician.
type SurgeonStat struct {
	Staff         string  `json:"staff"`
	Name          string  `json:"name"`
	TotalPatients int     `json:"totalPatients"`
	TotalRevenue  float64 `json:"totalRevenue"`
	TotalGrafts   int     `json:"totalGrafts"`
	AverageGrafts int     `json:"averageGrafts"`
}

// TechniqueStat summarises patients per technique.
type TechniqueStat struct {
	Technique     string  `json:"technique"`
	TotalPatients int     `json:"totalPatients"`
	TotalRevenue  float64 `json:"totalRevenue"`
	TotalGrafts   int     `json:"totalGrafts"`
}

// StatusStat counts patients in one status.
type StatusStat struct {
	Status Status `json:"status"`
	Count  int    `json:"count"`
}

// RevenueBucket is a summed group of transactions.
type RevenueBucket struct {
	Key          string  `json:"key"`
	Amount       float64 `json:"amount"`
	Transactions int     `json:"transactions"`
}

// RevenueBreakdown groups transactions of a window three ways.
type RevenueBreakdown struct {
	Total       float64         `json:"total"`
	ByMethod    []RevenueBucket `json:"byMethod"`
	ByTechnique []RevenueBucket `json:"byTechnique"`
	ByDay       []RevenueBucket `json:"byDay"`
}

// EmployeeOverview is the payload of the employees endpoint.
type EmployeeOverview struct {
	Counsellors []CounsellorStat `json:"counsellors"`
	Implanters  []SurgeonStat    `json:"implanters"`
	Technicians []SurgeonStat    `json:"technicians"`
	Totals      EmployeeTotals   `json:"totals"`
}

type EmployeeTotals struct {
	TotalPatients     int     `json:"totalPatients"`
	ConvertedPatients int     `json:"convertedPatients"`
	Surgeries         int     `json:"surgeries"`
	TotalRevenue      float64 `json:"totalRevenue"`
	TotalGrafts       int     `json:"totalGrafts"`
	Counsellors       int     `json:"counsellors"`
	Implanters        int     `json:"implanters"`
	Technicians       int     `json:"technicians"`
}

// Table is a report ready to be rendered as JSON rows or a spreadsheet.
type Table struct {
	Title   string          `json:"title"`
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// Report types served by the reports endpoint.
const (
	ReportPatients     = "patients"
	ReportCounsellors  = "counsellors"
	ReportAgents       = "agents"
	ReportImplanters   = "implanters"
	ReportTechnicians  = "technicians"
	ReportTechniques   = "techniques"
	ReportTransactions = "transactions"
	ReportStatus       = "status"
)

var ReportTypes = []string{
	ReportPatients,
	ReportCounsellors,
	ReportAgents,
	ReportImplanters,
	ReportTechnicians,
	ReportTechniques,
	ReportTransactions,
	ReportStatus,
}

// Reporting periods. Custom uses StartDate and EndDate.
const (
	PeriodToday  = "today"
	PeriodWeek   = "week"
	PeriodMonth  = "month"
	PeriodYear   = "year"
	PeriodAll    = "all"
	PeriodCustom = "custom"
)

type ReportRequest struct {
	Type            string `form:"type" binding:"required"`
	Period          string `form:"period"`
	StartDate       string `form:"startDate"`
	EndDate         string `form:"endDate"`
	StaffFilter     string `form:"staffFilter"`
	TechniqueFilter string `form:"techniqueFilter"`
	StatusFilter    string `form:"statusFilter"`
	Branch          Branch `form:"branch"`
	Format          string `form:"format"`
}
